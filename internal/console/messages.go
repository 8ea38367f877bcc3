package console

import (
	"filingdesk/internal/locations"
	"filingdesk/internal/stats"
	"filingdesk/internal/workflow"
)

type workflowEventMsg struct {
	event workflow.Event
}

type summaryMsg struct {
	summary stats.Summary
}

type loadDoneMsg struct {
	err error
}

type selectionDoneMsg struct {
	room   string
	drawer string
	err    error
}

type captureDoneMsg struct {
	err error
}

type confirmDoneMsg struct {
	result locations.CommitResult
	err    error
}
