package plans

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/temirov/svnport/internal/history"
)

const (
	anchorRevisionSeparatorConstant = "@"
	anchorOwnerFieldConstant        = "owner"
	anchorRevisionFieldConstant     = "revision"
	anchorTextErrorTemplateConstant = "invalid anchor %q: expected <owner>@<revision>"
)

type manifestDocument struct {
	Trunk    planDocument   `mapstructure:"trunk"`
	Branches []planDocument `mapstructure:"branches"`
	Tags     []planDocument `mapstructure:"tags"`
}

type planDocument struct {
	Name   string          `mapstructure:"name"`
	Anchor *anchorDocument `mapstructure:"anchor"`
	Views  []viewDocument  `mapstructure:"views"`
}

type anchorDocument struct {
	Owner    history.Owner `mapstructure:"owner"`
	Revision int64         `mapstructure:"revision"`
}

type viewDocument struct {
	Revision      int64             `mapstructure:"revision"`
	Timestamp     time.Time         `mapstructure:"timestamp"`
	Author        string            `mapstructure:"author"`
	Message       string            `mapstructure:"message"`
	Files         map[string]string `mapstructure:"files"`
	Snapshot      string            `mapstructure:"snapshot"`
	MigratedOwner *history.Owner    `mapstructure:"migrated_owner"`
}

var (
	ownerType          = reflect.TypeOf(history.Owner{})
	anchorDocumentType = reflect.TypeOf(anchorDocument{})
)

func newManifestDecoder(target *manifestDocument) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			ownerDecodeHook,
			anchorDecodeHook,
		),
		ErrorUnused:      true,
		WeaklyTypedInput: false,
		Result:           target,
	})
}

// ownerDecodeHook accepts trunk, branches/<name> and tags/<name>.
func ownerDecodeHook(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
	if sourceType.Kind() != reflect.String || targetType != ownerType {
		return data, nil
	}
	return history.ParseOwner(data.(string))
}

// anchorDecodeHook expands the short form owner@revision into an anchor mapping.
func anchorDecodeHook(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
	if sourceType.Kind() != reflect.String || targetType != anchorDocumentType {
		return data, nil
	}
	anchorText := strings.TrimSpace(data.(string))
	separatorIndex := strings.LastIndex(anchorText, anchorRevisionSeparatorConstant)
	if separatorIndex <= 0 {
		return nil, anchorTextError(anchorText)
	}
	revision, err := strconv.ParseInt(anchorText[separatorIndex+1:], 10, 64)
	if err != nil {
		return nil, anchorTextError(anchorText)
	}
	return map[string]any{
		anchorOwnerFieldConstant:    anchorText[:separatorIndex],
		anchorRevisionFieldConstant: revision,
	}, nil
}
