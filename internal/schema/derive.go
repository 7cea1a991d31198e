package schema

import "github.com/thellimist/lanemeta/internal/options"

// Derive maps one option property to its command-line argument.
func Derive(p options.Property) Argument {
	arg := Argument{
		Name:   ArgumentName(p.Name),
		Format: argumentFormat(p.Name, p.IsAction),
		Secret: p.Sensitive,
		Help:   p.Description,
		Type:   valueType(p),
	}
	if arg.Type == TypeStringList {
		arg.Separator = listSeparator
	}
	return arg
}

// DeriveAll maps properties to arguments, preserving order.
func DeriveAll(props []options.Property) []Argument {
	args := make([]Argument, 0, len(props))
	for _, p := range props {
		args = append(args, Derive(p))
	}
	return args
}
