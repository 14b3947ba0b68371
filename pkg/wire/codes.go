// Package wire holds the frozen wire-level vocabulary of the Vuforia APIs
// (result codes, target statuses, project states) and the uniform response
// writer that stamps every reply with the header set the real services use.
package wire

// ResultCode is the wire-level result identifier carried in JSON response
// bodies, distinct from the HTTP status code.
//
// See
// https://library.vuforia.com/web-api/cloud-targets-web-services-api#result-codes.
type ResultCode string

// Result codes returned by the services. Some are not documented by Vuforia
// but are observed on the wire.
const (
	ResultSuccess                ResultCode = "Success"
	ResultTargetCreated          ResultCode = "TargetCreated"
	ResultAuthenticationFailure  ResultCode = "AuthenticationFailure"
	ResultRequestTimeTooSkewed   ResultCode = "RequestTimeTooSkewed"
	ResultTargetNameExist        ResultCode = "TargetNameExist"
	ResultUnknownTarget          ResultCode = "UnknownTarget"
	ResultBadImage               ResultCode = "BadImage"
	ResultImageTooLarge          ResultCode = "ImageTooLarge"
	ResultMetadataTooLarge       ResultCode = "MetadataTooLarge"
	ResultDateRangeError         ResultCode = "DateRangeError"
	ResultFail                   ResultCode = "Fail"
	ResultTargetStatusProcessing ResultCode = "TargetStatusProcessing"
	ResultTargetStatusNotSuccess ResultCode = "TargetStatusNotSuccess"
	ResultProjectInactive        ResultCode = "ProjectInactive"
	ResultInactiveProject        ResultCode = "InactiveProject"
	ResultMalformedRequest       ResultCode = "MalformedRequest"
)

// TargetStatus is the lifecycle status reported in target records.
type TargetStatus string

// Target statuses. A target is "processing" until its simulated processing
// window elapses, then either "success" or "failed".
const (
	StatusProcessing TargetStatus = "processing"
	StatusSuccess    TargetStatus = "success"
	StatusFailed     TargetStatus = "failed"
)

// ProjectState is whether a database accepts traffic.
type ProjectState string

// Project states.
const (
	StateWorking  ProjectState = "working"
	StateInactive ProjectState = "inactive"
)
