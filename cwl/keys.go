package cwl

// Wire names of document fields. Storage names differ for class (Class in Go,
// "class" on the wire) and the command-inclusion flag (CmdInclude in Go,
// namespaced "sbg:cmdInclude" on the wire).
const (
	keyID                 = "id"
	keyAuthor             = "author"
	keyVersion            = "version"
	keyDescription        = "description"
	keyLabel              = "label"
	keyClass              = "class"
	keyInputs             = "inputs"
	keyOutputs            = "outputs"
	keyArguments          = "arguments"
	keyStdout             = "stdout"
	keyStdin              = "stdin"
	keyBaseCommand        = "baseCommand"
	keyRequirements       = "requirements"
	keySuccessCodes       = "successCodes"
	keyTemporaryFailCodes = "temporaryFailCodes"
	keyHints              = "hints"

	keyType          = "type"
	keyItems         = "items"
	keyInputBinding  = "inputBinding"
	keyOutputBinding = "outputBinding"
	keyPrefix        = "prefix"
	keySeparate      = "separate"
	keyPosition      = "position"
	keyCmdInclude    = "sbg:cmdInclude"
	keyValueFrom     = "valueFrom"
	keyGlob          = "glob"
	keyFileTypes     = "fileTypes"
	keyValue         = "value"
	keyEngine        = "engine"
	keyScript        = "script"
	keyDockerPull    = "dockerPull"
	keyDockerImageID = "dockerImageID"
)

// Document and capability classes.
const (
	ClassCommandLineTool             = "CommandLineTool"
	ClassExpression                  = "Expression"
	ClassExpressionEngineRequirement = "ExpressionEngineRequirement"
	ClassDockerRequirement           = "DockerRequirement"
	ClassCPURequirement              = "sbg:CPURequirement"
	ClassMemRequirement              = "sbg:MemRequirement"
	ClassAWSInstanceType             = "sbg:AWSInstanceType"
)
