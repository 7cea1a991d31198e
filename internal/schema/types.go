package schema

// ValueType is the argument type understood by the wrapper generator.
type ValueType string

const (
	TypeString     ValueType = "string"
	TypeBool       ValueType = "bool"
	TypeStringList ValueType = "List<string>"
)

// listSeparator joins list values on the command line.
const listSeparator = ","

// Argument is the command-line argument derived from one option property.
// Field order is the serialization order.
type Argument struct {
	Name      string    `json:"Name"`                // Identifier-safe PascalCase name
	Format    string    `json:"Format"`              // Invocation template with a {value} placeholder
	Secret    bool      `json:"Secret,omitempty"`    // Value must not be logged
	Help      string    `json:"Help,omitempty"`      // Option description
	Type      ValueType `json:"Type"`                // Value type
	Separator string    `json:"Separator,omitempty"` // Only set for TypeStringList
}
