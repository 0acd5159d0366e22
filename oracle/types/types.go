package types

import (
	"time"

	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// Job is one observation the daemon owes a pending request.
type Job struct {
	Request  string
	DataType string
	Quantity uint64
	Attempt  uint64
	Queued   time.Time
}

// JobResult is a fetched observation bound to its request by a proof hash.
type JobResult struct {
	Request   string
	DataType  string
	DataValue uint64
	Timestamp int64
	ProofHash oracletypes.ProofHash
	Attempt   uint64
}

// EventKind classifies the transactions the daemon reacts to.
type EventKind byte

const (
	Unknown EventKind = iota
	Created
	Completed
)

// RequestEvent is a request lifecycle change observed on the event stream.
type RequestEvent struct {
	Kind     EventKind
	Request  string
	DataType string
}

// MakeJob builds the job for a pending request.
func MakeJob(req oracletypes.Request, now time.Time) Job {
	return Job{
		Request:  req.Address.String(),
		DataType: req.DataType,
		Quantity: req.Quantity,
		Queued:   now,
	}
}

// NewJobResult binds value to the job's request at timestamp.
func NewJobResult(job Job, value uint64, timestamp int64) JobResult {
	return JobResult{
		Request:   job.Request,
		DataType:  job.DataType,
		DataValue: value,
		Timestamp: timestamp,
		ProofHash: oracletypes.ComputeProofHash(value, job.DataType, timestamp),
		Attempt:   job.Attempt,
	}
}

// MakeEvents extracts request lifecycle changes from a committed transaction.
// A request leaves the daemon's care once it is verified, settled or rejected.
func MakeEvents(res types.TxResult) []RequestEvent {
	if !res.IsOK() {
		return nil
	}

	var events []RequestEvent
	for _, ev := range res.Events {
		var kind EventKind
		switch ev.Type {
		case oracletypes.EventTypeCreateRequest:
			kind = Created
		case oracletypes.EventTypeVerifyRequest, oracletypes.EventTypeSettleRequest, oracletypes.EventTypeRejectRequest:
			kind = Completed
		default:
			continue
		}

		request, ok := ev.Attribute(oracletypes.AttributeKeyRequest)
		if !ok {
			continue
		}
		dataType, _ := ev.Attribute(oracletypes.AttributeKeyDataType)
		events = append(events, RequestEvent{Kind: kind, Request: request, DataType: dataType})
	}
	return events
}
