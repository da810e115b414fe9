// Package flagx picks individual flags out of the process arguments so that
// separate config layers can each parse only what they own.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// flagName strips the leading dashes, so "-c", "--c" and "c" name the same
// flag, as they do for the flag package.
func flagName(arg string) string {
	return strings.TrimLeft(arg, "-")
}

// FilterArgs keeps the flags listed in allowed, together with their values,
// and drops everything else. Both "-name value" and "-name=value" are
// understood, with one or two leading dashes. A token starting with a dash is
// never taken as a value.
func FilterArgs(args []string, allowed []string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		names[flagName(f)] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if _, ok := names[flagName(name)]; !ok {
			continue
		}
		out = append(out, arg)

		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigFile returns the path given with -c or -config in args, or "" when
// neither is present. The last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to a JSON or YAML config file")
	fs.StringVar(&path, "c", "", "path to a JSON or YAML config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"c", "config"}))

	return path
}
