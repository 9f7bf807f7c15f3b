package ir

import (
	"fmt"
)

// Common reusable violation constructors (template helpers)
// NOTE: Keep messages stable; they are shown to operators verbatim.

func violationQueryRootMissing() *Violation {
	return violationAt("Query root is missing")
}

func violationRootTypeNotDefined(kind, typeName string) *Violation {
	return violationAt(kind+" type is not defined", typeName)
}

func violationRootTypeNotObject(kind, typeName string) *Violation {
	return violationAt(fmt.Sprintf("%s type %q must be an object type", kind, typeName), typeName)
}

func violationUndeclaredType(typeName string, trace ...string) *Violation {
	return violationAt(fmt.Sprintf("Undeclared type '%s' was found", typeName), trace...)
}

func violationInputOutputConflict(typeName string) *Violation {
	return violationAt("type is used in input and output", typeName)
}

func violationDefinitionAlreadyExists(typeName string) *Violation {
	return violationAt(fmt.Sprintf("Type '%s' is declared more than once", typeName), typeName)
}

func violationDuplicateField(fieldName, typeName string) *Violation {
	return violationAt(fmt.Sprintf("Field '%s' is declared more than once on type '%s'", fieldName, typeName), typeName, fieldName)
}

func violationDuplicateArgument(argName, typeName, fieldName string) *Violation {
	return violationAt(fmt.Sprintf("Argument '%s' is declared more than once", argName), typeName, fieldName, argName)
}

func violationReservedName(name string, trace ...string) *Violation {
	return violationAt(fmt.Sprintf("Name '%s' is reserved", name), trace...)
}

func violationErrorDirectiveInInput(typeName, fieldName string) *Violation {
	return violationAt("@error is output-only and can't be configured", typeName, fieldName, "@error")
}

func violationObjectMustHaveField(typeName string) *Violation {
	return violationAt(fmt.Sprintf("Type '%s' must define at least one field", typeName), typeName)
}

func violationInputFieldDirective(directive, typeName, fieldName string) *Violation {
	return violationAt(fmt.Sprintf("@%s can't be used on input type fields", directive), typeName, fieldName, "@"+directive)
}

func violationEnumWithoutVariants(typeName string) *Violation {
	return violationAt("No variants found for enum", typeName)
}

func violationEnumWithFields(typeName string) *Violation {
	return violationAt(fmt.Sprintf("Enum '%s' can't declare fields", typeName), typeName)
}

func violationDuplicateEnumValue(value, typeName string) *Violation {
	return violationAt(fmt.Sprintf("Enum value '%s' is declared more than once", value), typeName, value)
}
