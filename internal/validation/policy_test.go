package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packvault/packvault/internal/model"
)

func TestCheckPolicy(t *testing.T) {
	tests := []struct {
		name         string
		resourceType string
		contentType  string
		directory    string
		wantErr      error
	}{
		{name: "texture png", resourceType: "texture", contentType: "image/png", directory: "textures/block"},
		{name: "texture json metadata", resourceType: "texture", contentType: "application/json", directory: "textures/item"},
		{name: "model json", resourceType: "model", contentType: "application/json", directory: "models/item"},
		{name: "language json", resourceType: "language", contentType: "application/json", directory: "lang"},
		{name: "icon png at root", resourceType: "icon", contentType: "image/png", directory: "/"},
		{name: "unknown resource type", resourceType: "sound", contentType: "image/png", directory: "textures/block", wantErr: ErrUndefinedResourceType},
		{name: "empty resource type", resourceType: "", contentType: "image/png", directory: "/", wantErr: ErrUndefinedResourceType},
		{name: "content type not listed", resourceType: "model", contentType: "image/png", directory: "models/block", wantErr: ErrForbiddenContentType},
		{name: "unknown content type", resourceType: "texture", contentType: "image/gif", directory: "textures/block", wantErr: ErrForbiddenContentType},
		{name: "directory not allowed", resourceType: "texture", contentType: "application/json", directory: "textures/gui", wantErr: ErrForbiddenFileDirectory},
		{name: "directory traversal", resourceType: "language", contentType: "application/json", directory: "../lang", wantErr: ErrForbiddenFileDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPolicy(tt.resourceType, tt.contentType, tt.directory)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckPolicyResourceTypeIsCheckedFirst(t *testing.T) {
	err := CheckPolicy("sound", "audio/ogg", "sounds")
	require.ErrorIs(t, err, ErrUndefinedResourceType)
	assert.NotErrorIs(t, err, ErrForbiddenContentType)
}

func TestEveryResourceTypeHasPolicy(t *testing.T) {
	for _, rt := range []model.ResourceType{
		model.ResourceTypeTexture,
		model.ResourceTypeModel,
		model.ResourceTypeLanguage,
		model.ResourceTypeIcon,
	} {
		_, parsed := model.ParseResourceType(string(rt))
		require.True(t, parsed, rt)

		rules, ok := uploadPolicy[rt]
		require.True(t, ok, "missing policy for %s", rt)
		for ct, allowed := range rules {
			_, known := model.ParseContentType(string(ct))
			assert.True(t, known, "unsniffable content type %s", ct)
			assert.NotEmpty(t, allowed)
		}
	}
}
