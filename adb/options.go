// Flag structs for the bridge CLI subcommands, encoded to an argv via the
// generic ToArgs helper.
package adb

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// GlobalOptions are the flags that may precede any subcommand.
type GlobalOptions struct {
	// Host is passed as -H when connecting to a non-default bridge server.
	Host string `flag:"-H"`
	// Port is passed as -P when connecting to a non-default bridge server.
	Port int `flag:"-P"`
	// Serial is passed as -s when the subcommand targets one device.
	Serial string `flag:"-s"`
}

// ShellOptions configures a `shell` invocation.
type ShellOptions struct {
	GlobalOptions
}

// PushOptions configures a `push` invocation.
type PushOptions struct {
	GlobalOptions
	// SyncOnly limits the push to files newer than the destination.
	SyncOnly bool `flag:"--sync"`
}

// InstallOptions configures an `install` invocation.
type InstallOptions struct {
	GlobalOptions
	// Replace reinstalls an existing app, keeping its data (-r).
	Replace bool `flag:"-r"`
	// Downgrade allows installing an older versionCode (-d).
	Downgrade bool `flag:"-d"`
	// GrantPermissions grants all runtime permissions (-g).
	GrantPermissions bool `flag:"-g"`
}

// ForwardOptions configures a `forward` invocation.
type ForwardOptions struct {
	GlobalOptions
	// NoRebind refuses to replace an existing forward on the same local port.
	NoRebind bool `flag:"--no-rebind"`
}

// ToArgs converts a flag-tagged struct into a CLI argument vector. Fields
// tagged `flag:"--x"` are included only when non-zero; add ",keepZero" to
// always include them. Anonymous embedded struct fields are expanded
// recursively. Slice/array fields repeat the flag once per element. Map
// fields are joined as comma-separated key=value pairs sorted by key.
// Boolean fields are flag-only (no value); everything else is formatted
// with %v.
func ToArgs[T any](s *T) []string {
	if s == nil {
		s = new(T)
	}
	var ret []string
	st := reflect.TypeOf(*s)
	sv := reflect.ValueOf(*s)
	if st.Kind() == reflect.Pointer {
		sv = reflect.Indirect(sv)
		st = sv.Type()
	}
	for i := range st.NumField() {
		field := st.Field(i)
		fv := sv.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			fvi := fv.Interface()
			ret = append(ret, ToArgs(&fvi)...)
			continue
		}
		flagTag, ok := field.Tag.Lookup("flag")
		if !ok {
			continue
		}
		flagParts := strings.Split(flagTag, ",")
		flagName := flagParts[0]
		keepZero := false
		if len(flagParts) > 1 && strings.EqualFold(flagParts[1], "keepZero") {
			keepZero = true
		}
		v := reflect.ValueOf(fv.Interface())

		if !keepZero && v.IsZero() {
			continue
		}
		if ret == nil {
			ret = []string{}
		}
		flagValue := ""
		fieldKind := field.Type.Kind()
		switch {
		case fieldKind == reflect.Array || fieldKind == reflect.Slice:
			for i := 0; i < fv.Len(); i++ {
				av := fv.Index(i)
				ret = append(ret, flagName, fmt.Sprintf("%v", av))
			}
			continue
		case fieldKind == reflect.Map:
			mapVals := []string{}
			m := v.Interface().(map[string]string)
			keys := slices.Sorted(maps.Keys(m))
			for _, k := range keys {
				mapVals = append(mapVals, fmt.Sprintf("%v=%v", k, m[k]))
			}
			flagValue = strings.Join(mapVals, ",")
		case fieldKind != reflect.Bool:
			flagValue = fmt.Sprintf("%v", fv.Interface())
		}
		ret = append(ret, flagName)
		if flagValue != "" {
			ret = append(ret, flagValue)
		}
	}
	return ret
}
