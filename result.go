package bolt

// Result holds everything the server sent back for one statement: the
// metadata from the success message that accepted the statement, each
// record in the order it arrived, and the summary metadata from the
// success message that closed the stream.
type Result struct {
	Metadata map[string]interface{}
	Records  [][]interface{}
	Summary  map[string]interface{}
}

// Fields gets the field names of the records, taken from the metadata
// the statement was accepted with
func (r *Result) Fields() []string {
	fieldsInt, ok := r.Metadata["fields"].([]interface{})
	if !ok {
		return nil
	}

	fields := make([]string, len(fieldsInt))
	for i, f := range fieldsInt {
		fields[i], _ = f.(string)
	}
	return fields
}
