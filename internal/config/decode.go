package config

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/v2"
)

// LineEndingHook decodes "lf" and "crlf" into a LineEnding.
func LineEndingHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(LineEnding("")) {
			return data, nil
		}
		return ParseLineEnding(reflect.ValueOf(data).String())
	}
}

// UnmarshalConf returns the koanf decoding setup used for every config load:
// koanf tags, weak typing for env and flag strings, comma lists and the
// line ending hook.
func UnmarshalConf(out any) koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				LineEndingHook(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           out,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}
}
