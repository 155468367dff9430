package model

// ResourceType is the closed set of resource kinds that accept uploads.
type ResourceType string

const (
	ResourceTypeTexture  ResourceType = "texture"
	ResourceTypeModel    ResourceType = "model"
	ResourceTypeLanguage ResourceType = "language"
	ResourceTypeIcon     ResourceType = "icon"
)

// ParseResourceType returns false for anything outside the known set.
func ParseResourceType(s string) (ResourceType, bool) {
	switch t := ResourceType(s); t {
	case ResourceTypeTexture, ResourceTypeModel, ResourceTypeLanguage, ResourceTypeIcon:
		return t, true
	}
	return "", false
}

// ContentType is the closed set of MIME types whose payload can be sniffed.
type ContentType string

const (
	ContentTypePNG  ContentType = "image/png"
	ContentTypeJSON ContentType = "application/json"
)

// ParseContentType returns false for anything outside the known set.
func ParseContentType(s string) (ContentType, bool) {
	switch t := ContentType(s); t {
	case ContentTypePNG, ContentTypeJSON:
		return t, true
	}
	return "", false
}
