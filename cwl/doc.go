// Package cwl builds command-line tool descriptors and renders them as
// document trees for encoding.
//
// A Descriptor is created with New and filled through add operations:
//
//	d, err := cwl.New("test_tool", "testing123", cwl.WithAuthor("gaurav"))
//	if err != nil {
//		return err
//	}
//	_ = d.SetBaseCommand("python test.py")
//	_ = d.AddInputPort(cwl.InputParams{ID: "yes", Type: "boolean", Prefix: cwl.Some("-y")})
//	_ = d.AddOutputPort(cwl.OutputParams{ID: "no", Type: "File", Glob: "*.txt", Required: true})
//	_ = d.SetStdout("$job.inputs.maybe.path + '.txt'")
//
// Values of stdin, stdout, output globs, argument and input valueFrom, and CPU
// and memory hints are classified: a value whose text contains a quote, a '$'
// or a member access such as "inputs.size" becomes an Expression and registers
// the ExpressionEngineRequirement once per descriptor. A period counts only
// between an operand (letter, digit, '_', '$', ')' or ']') and an ASCII letter,
// '_' or '$', so globs like "*.txt" and numbers like 0.5 stay literal.
//
// Fields that were never set render as Unset in Tree. Document (or Prune) drops
// them, keeping explicit false, zero and empty values. The encode package turns
// the pruned tree into JSON or YAML.
package cwl
