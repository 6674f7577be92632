package domain

import (
	"bytes"
	"encoding/json"
)

// ChunkType is the event name a chunk travels under on the wire.
type ChunkType string

const (
	ChunkModelStart      ChunkType = "model.start"
	ChunkModelDelta      ChunkType = "model.delta"
	ChunkModelEnd        ChunkType = "model.end"
	ChunkClassifyStart   ChunkType = "classify.start"
	ChunkClassifyResult  ChunkType = "classify.result"
	ChunkClassifyEnd     ChunkType = "classify.end"
	ChunkDecomposeStart  ChunkType = "decompose.start"
	ChunkDecomposeResult ChunkType = "decompose.result"
	ChunkProgress        ChunkType = "progress"
	ChunkAttempt         ChunkType = "attempt"
	ChunkServerError     ChunkType = "server-error"
	ChunkDone            ChunkType = "done"
)

// Chunk is one atomic unit of the streaming protocol. The set of
// implementations is closed: only the types in this file satisfy it.
type Chunk interface {
	ChunkType() ChunkType
	isChunk()
}

type ModelStart struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	TS       int64  `json:"ts"`
}

type ModelDelta struct {
	Text string `json:"text"`
}

type ModelEnd struct {
	DurationMs int64 `json:"durationMs"`
	Length     int   `json:"length"`
}

type ClassifyStart struct{}

type ClassifyResult struct {
	Classification
}

type ClassifyEnd struct {
	DurationMs int64 `json:"durationMs"`
}

type DecomposeStart struct{}

type DecomposeResult struct {
	Sublemmas []Sublemma `json:"sublemmas"`
}

type Progress struct {
	Stage   string `json:"stage"`
	Message string `json:"message,omitempty"`
}

// Attempt announces the candidate chain a flow is about to walk.
type Attempt struct {
	Candidates []string `json:"candidates"`
}

// ServerError reports a failure. Before any ModelEnd it is fatal unless a
// later ModelStart supersedes it; after ModelEnd it is advisory.
type ServerError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

// Done carries the full validated result object of a flow as its payload.
type Done struct {
	Result json.RawMessage
}

func (d Done) MarshalJSON() ([]byte, error) {
	if len(d.Result) == 0 {
		return []byte("{}"), nil
	}
	return d.Result, nil
}

func (d *Done) UnmarshalJSON(b []byte) error {
	d.Result = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}

func (ModelStart) ChunkType() ChunkType      { return ChunkModelStart }
func (ModelDelta) ChunkType() ChunkType      { return ChunkModelDelta }
func (ModelEnd) ChunkType() ChunkType        { return ChunkModelEnd }
func (ClassifyStart) ChunkType() ChunkType   { return ChunkClassifyStart }
func (ClassifyResult) ChunkType() ChunkType  { return ChunkClassifyResult }
func (ClassifyEnd) ChunkType() ChunkType     { return ChunkClassifyEnd }
func (DecomposeStart) ChunkType() ChunkType  { return ChunkDecomposeStart }
func (DecomposeResult) ChunkType() ChunkType { return ChunkDecomposeResult }
func (Progress) ChunkType() ChunkType        { return ChunkProgress }
func (Attempt) ChunkType() ChunkType         { return ChunkAttempt }
func (ServerError) ChunkType() ChunkType     { return ChunkServerError }
func (Done) ChunkType() ChunkType            { return ChunkDone }

func (ModelStart) isChunk()      {}
func (ModelDelta) isChunk()      {}
func (ModelEnd) isChunk()        {}
func (ClassifyStart) isChunk()   {}
func (ClassifyResult) isChunk()  {}
func (ClassifyEnd) isChunk()     {}
func (DecomposeStart) isChunk()  {}
func (DecomposeResult) isChunk() {}
func (Progress) isChunk()        {}
func (Attempt) isChunk()         {}
func (ServerError) isChunk()     {}
func (Done) isChunk()            {}
