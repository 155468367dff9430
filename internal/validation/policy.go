package validation

import (
	"errors"
	"fmt"

	"github.com/packvault/packvault/internal/model"
)

var (
	ErrUndefinedResourceType  = errors.New("undefined resource type")
	ErrForbiddenContentType   = errors.New("content type not allowed for resource type")
	ErrForbiddenFileDirectory = errors.New("file directory not allowed for content type")
)

// directories is a set of allowed upload directories
type directories map[string]struct{}

func dirs(names ...string) directories {
	set := make(directories, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// uploadPolicy maps every resource type to the content types it accepts and,
// per content type, the directories a file may be placed in.
var uploadPolicy = map[model.ResourceType]map[model.ContentType]directories{
	model.ResourceTypeTexture: {
		model.ContentTypePNG:  dirs("textures/block", "textures/item", "textures/entity", "textures/gui"),
		model.ContentTypeJSON: dirs("textures/block", "textures/item"),
	},
	model.ResourceTypeModel: {
		model.ContentTypeJSON: dirs("models/block", "models/item"),
	},
	model.ResourceTypeLanguage: {
		model.ContentTypeJSON: dirs("lang"),
	},
	model.ResourceTypeIcon: {
		model.ContentTypePNG: dirs("/"),
	},
}

// CheckPolicy validates an upload against the policy table.
// Checks run in order: resource type, content type, directory.
func CheckPolicy(resourceType, contentType, directory string) error {
	rt, ok := model.ParseResourceType(resourceType)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUndefinedResourceType, resourceType)
	}
	byContentType, ok := uploadPolicy[rt]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUndefinedResourceType, resourceType)
	}

	ct, ok := model.ParseContentType(contentType)
	if !ok {
		return fmt.Errorf("%w: %q for %s", ErrForbiddenContentType, contentType, rt)
	}
	allowed, ok := byContentType[ct]
	if !ok {
		return fmt.Errorf("%w: %q for %s", ErrForbiddenContentType, contentType, rt)
	}

	if _, ok := allowed[directory]; !ok {
		return fmt.Errorf("%w: %q for %s", ErrForbiddenFileDirectory, directory, ct)
	}

	return nil
}
