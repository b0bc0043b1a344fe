package status

// ReduceToParent collapses a group of node statuses into one parent status.
// It operates on the set of distinct values, so input order never matters.
// UNKNOWN outranks ERROR, which outranks everything else. Two exact
// two-element mixtures get special treatment: bootstrap nodes are expected
// to coexist with peers that are already running or not yet started, so
// those mixtures are not MIXED.
func ReduceToParent(children []NodeStatus) ParentStatus {
	distinct := make(map[NodeStatus]struct{})
	for _, child := range children {
		distinct[child] = struct{}{}
	}

	if _, ok := distinct[NodeUnknown]; ok {
		return ParentUnknown
	}
	if _, ok := distinct[NodeError]; ok {
		return ParentError
	}

	if len(distinct) == 2 {
		_, bootstrap := distinct[NodeReadyToBootstrap]
		if _, ok := distinct[NodeReadyToStart]; ok && bootstrap {
			return ParentAllReadyToStart
		}
		if _, ok := distinct[NodeRunning]; ok && bootstrap {
			return ParentAllReadyToBootstrap
		}
	}

	if len(distinct) > 1 {
		return ParentMixed
	}
	for only := range distinct {
		return parentNamesake[only]
	}
	return ParentAllDown
}

// ReduceContainerGroup collapses container or service leaf statuses into one
// parent status.
func ReduceContainerGroup(children []ContainerStatus) ParentStatus {
	running, unhealthy, unknown := 0, 0, 0
	for _, child := range children {
		switch child {
		case ContainerUnknown:
			unknown++
		case ContainerUnhealthy, ContainerError:
			unhealthy++
		case ContainerRunning, ContainerStarting:
			running++
		}
	}

	switch {
	case unknown > 0:
		return ParentUnknown
	case unhealthy > 0:
		return ParentError
	case running == len(children) && len(children) > 0:
		return ParentAllRunning
	case running > 0:
		return ParentSomeRunning
	default:
		return ParentAllDown
	}
}

// ReduceComponentGroup collapses a group of cloud resource component
// statuses into one parent status. A unanimous in-progress group reports as
// initializing, not MIXED; an empty group reports all down.
func ReduceComponentGroup(children []AwsComponentStatus) ParentStatus {
	distinct := make(map[AwsComponentStatus]struct{})
	for _, child := range children {
		distinct[child] = struct{}{}
	}

	if _, ok := distinct[AwsError]; ok {
		return ParentError
	}
	if len(distinct) > 1 {
		return ParentMixed
	}
	for only := range distinct {
		switch only {
		case AwsReady:
			return ParentAllRunning
		case AwsNotReady:
			return ParentAllInitializing
		}
	}
	return ParentAllDown
}

// ReduceGrandparent collapses already-aggregated parent statuses one level
// further, for top-level rollups across roles or resource groups.
func ReduceGrandparent(children []ParentStatus) ParentStatus {
	distinct := make(map[ParentStatus]struct{})
	for _, child := range children {
		distinct[child] = struct{}{}
	}

	if len(distinct) == 1 {
		for only := range distinct {
			return only
		}
	}
	if _, ok := distinct[ParentUnknown]; ok {
		return ParentUnknown
	}
	if _, ok := distinct[ParentError]; ok {
		return ParentError
	}
	if _, ok := distinct[ParentSomeRunning]; ok {
		return ParentSomeRunning
	}
	if len(distinct) > 1 {
		return ParentMixed
	}
	return ParentAllDown
}
