package schema

// FlatArg describes one flattened keyword argument of a compiled operation.
type FlatArg struct {
	// Description is the schema description of the underlying field, or a
	// placeholder when the schema carries none.
	Description string
	// Path is the dotted path from the argument name down to the leaf
	// field, used to rebuild the nested variables object the document
	// expects. For top-level scalar arguments it equals the key itself.
	Path string
}

// Operation is the compiled form of a single query or mutation field.
// Instances are built once per schema compilation and never mutated.
type Operation struct {
	// OperationName is the schema-native field name, e.g. "createDataset".
	OperationName string
	// Name is the canonical snake_case name callers use, e.g.
	// "create_dataset".
	Name string
	// QueryDefinition is the full GraphQL document for this single field,
	// with its return type expanded into a depth-bounded selection set.
	QueryDefinition string
	// Doc documents the operation for human readers: the schema field
	// description (or a placeholder), plus the input object arguments and
	// the return type when the field takes input objects.
	Doc string
	// InputArgs maps declared argument names to their GraphQL type
	// notation, e.g. {"input": "NewDatasetInput", "datasetUri": "String!"}.
	InputArgs map[string]string
	// FlattenInputArgs maps every flattened keyword key to its leaf
	// description and nested path.
	FlattenInputArgs map[string]FlatArg
}
