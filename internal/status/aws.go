package status

import "strings"

// AwsComponentStatus is the fixed vocabulary every raw provider state string
// maps into, one table per resource kind. States missing from a table map
// to ERROR so a new provider state never passes silently.
type AwsComponentStatus string

const (
	AwsNotPresent AwsComponentStatus = "NOT_PRESENT"
	AwsReady      AwsComponentStatus = "READY"
	AwsNotReady   AwsComponentStatus = "NOT_READY"
	AwsError      AwsComponentStatus = "ERROR"
)

func (s AwsComponentStatus) String() string  { return string(s) }
func (s AwsComponentStatus) Composite() bool { return false }

var instanceStates = map[string]AwsComponentStatus{
	"pending":       AwsNotReady,
	"running":       AwsReady,
	"shutting-down": AwsNotReady,
	"stopping":      AwsNotReady,
	"stopped":       AwsNotReady,
	"terminated":    AwsNotPresent,
}

var stackStates = map[string]AwsComponentStatus{
	"CREATE_IN_PROGRESS":                           AwsNotReady,
	"CREATE_COMPLETE":                              AwsReady,
	"CREATE_FAILED":                                AwsError,
	"UPDATE_IN_PROGRESS":                           AwsNotReady,
	"UPDATE_COMPLETE_CLEANUP_IN_PROGRESS":          AwsNotReady,
	"UPDATE_COMPLETE":                              AwsReady,
	"UPDATE_ROLLBACK_IN_PROGRESS":                  AwsNotReady,
	"UPDATE_ROLLBACK_COMPLETE_CLEANUP_IN_PROGRESS": AwsNotReady,
	"UPDATE_ROLLBACK_COMPLETE":                     AwsError,
	"UPDATE_ROLLBACK_FAILED":                       AwsError,
	"ROLLBACK_IN_PROGRESS":                         AwsNotReady,
	"ROLLBACK_COMPLETE":                            AwsError,
	"ROLLBACK_FAILED":                              AwsError,
	"DELETE_IN_PROGRESS":                           AwsNotReady,
	"DELETE_COMPLETE":                              AwsNotPresent,
	"DELETE_FAILED":                                AwsError,
	"REVIEW_IN_PROGRESS":                           AwsNotReady,
}

var fileSystemStates = map[string]AwsComponentStatus{
	"creating":  AwsNotReady,
	"updating":  AwsNotReady,
	"available": AwsReady,
	"deleting":  AwsNotReady,
	"deleted":   AwsNotPresent,
	"error":     AwsError,
}

// MapInstanceState maps a raw EC2 instance state name. An empty state means
// the instance was not found in the inventory.
func MapInstanceState(raw string) AwsComponentStatus {
	if raw == "" {
		return AwsNotPresent
	}
	if mapped, ok := instanceStates[strings.ToLower(raw)]; ok {
		return mapped
	}
	return AwsError
}

// MapStackState maps a raw CloudFormation stack status.
func MapStackState(raw string) AwsComponentStatus {
	if raw == "" {
		return AwsNotPresent
	}
	if mapped, ok := stackStates[raw]; ok {
		return mapped
	}
	return AwsError
}

// MapFileSystemState maps a raw EFS file system life cycle state.
func MapFileSystemState(raw string) AwsComponentStatus {
	if raw == "" {
		return AwsNotPresent
	}
	if mapped, ok := fileSystemStates[strings.ToLower(raw)]; ok {
		return mapped
	}
	return AwsError
}
