package ir

// Scalars supported by the gateway. JSON carries any JSON value unchanged.
var builtinScalars = []string{"String", "Int", "Float", "Boolean", "ID", "JSON"}

func IsScalar(name string) bool {
	for _, s := range builtinScalars {
		if s == name {
			return true
		}
	}
	return false
}
