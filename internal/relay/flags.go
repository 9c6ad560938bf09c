package relay

import "strings"

// Separator splits autoimport's own arguments from the compiler command line.
const Separator = "--"

// SplitCommand returns the arguments before and after the first Separator.
// ok is false when there is no separator.
func SplitCommand(args []string) (own, compiler []string, ok bool) {
	for i, a := range args {
		if a == Separator {
			return args[:i], args[i+1:], true
		}
	}
	return args, nil, false
}

// RewriteFormatFlag drops every compiler argument starting with prefix and
// appends flag. Arguments before the separator are kept as they are; without
// a separator the whole slice is treated as the compiler command line.
// The input is not modified.
func RewriteFormatFlag(args []string, prefix, flag string) []string {
	own, compiler, ok := SplitCommand(args)
	if !ok {
		own, compiler = nil, args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, own...)
	if ok {
		out = append(out, Separator)
	}
	for _, a := range compiler {
		if prefix != "" && strings.HasPrefix(a, prefix) {
			continue
		}
		out = append(out, a)
	}
	if flag != "" {
		out = append(out, flag)
	}
	return out
}
