package txn

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cuemby/sawtable/pkg/types"
)

// Envelope is the canonical wire form of one transaction: a type tag
// plus a type-specific JSON body. LastUpdatedTime is deliberately absent
// from the body — the TransactionLogHead stamps it during replay so
// that identical transactions produce byte-identical log entries
// (spec §4.3).
type Envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// wire reference/partition shapes, matching spec §6's serialized format.

type wireReference struct {
	PartitionID                      string `json:"partitionId"`
	NumberOfRecords                  int64  `json:"numberOfRecords"`
	JobID                            *string `json:"jobId"`
	CountApproximate                 bool   `json:"countApproximate"`
	OnlyContainsDataForThisPartition bool   `json:"onlyContainsDataForThisPartition"`
}

func toWireReference(r *types.FileReference) wireReference {
	return wireReference{
		PartitionID:                      r.PartitionID,
		NumberOfRecords:                  r.NumberOfRecords,
		JobID:                            r.JobID,
		CountApproximate:                 r.CountApproximate,
		OnlyContainsDataForThisPartition: r.OnlyContainsDataForThisPartition,
	}
}

func (w wireReference) toReference(filename string) *types.FileReference {
	return &types.FileReference{
		Filename:                         filename,
		PartitionID:                      w.PartitionID,
		NumberOfRecords:                  w.NumberOfRecords,
		JobID:                            w.JobID,
		CountApproximate:                 w.CountApproximate,
		OnlyContainsDataForThisPartition: w.OnlyContainsDataForThisPartition,
	}
}

type wireFile struct {
	Filename           string          `json:"filename"`
	TotalReferenceCount int            `json:"totalReferenceCount"`
	References         []wireReference `json:"references"`
}

func toWireFile(f *types.AllReferencesToAFile) wireFile {
	w := wireFile{Filename: f.Filename, TotalReferenceCount: f.TotalReferenceCount()}
	// InternalReferences is a map; sort by partition id so the encoded
	// order does not depend on map iteration order.
	partitionIDs := make([]string, 0, len(f.InternalReferences))
	for id := range f.InternalReferences {
		partitionIDs = append(partitionIDs, id)
	}
	sort.Strings(partitionIDs)
	for _, id := range partitionIDs {
		w.References = append(w.References, toWireReference(f.InternalReferences[id]))
	}
	return w
}

func (w wireFile) toFile() *types.AllReferencesToAFile {
	refs := make([]*types.FileReference, 0, len(w.References))
	for _, wr := range w.References {
		refs = append(refs, wr.toReference(w.Filename))
	}
	file, _ := types.NewAllReferencesToAFile(w.Filename, refs, time.Time{})
	file.ExternalReferenceCount = w.TotalReferenceCount - len(refs)
	return file
}

// --- File transaction wire bodies ---

type addFilesBody struct {
	Files []wireFile `json:"files"`
}

type assignJobIDsBody struct {
	Requests []AssignJobIDRequest `json:"requests"`
}

type splitFileReferenceWireRequest struct {
	Filename        string          `json:"filename"`
	FromPartitionID string          `json:"fromPartitionId"`
	NewReferences   []wireReference `json:"newReferences"`
}

type splitFileReferencesBody struct {
	Requests []splitFileReferenceWireRequest `json:"requests"`
}

type replaceFileReferencesBody struct {
	JobID          string        `json:"jobId"`
	PartitionID    string        `json:"partitionId"`
	InputFilenames []string      `json:"inputFilenames"`
	NewReference   wireReference `json:"newReference"`
	NewFilename    string        `json:"newFilename"`
}

type deleteFilesBody struct {
	Filenames []string `json:"filenames"`
}

// EncodeFile converts a FileTransaction into its canonical Envelope.
func EncodeFile(t FileTransaction) (Envelope, error) {
	var body interface{}
	switch v := t.(type) {
	case AddFiles:
		b := addFilesBody{}
		for _, f := range v.Files {
			b.Files = append(b.Files, toWireFile(f))
		}
		body = b
	case AssignJobIds:
		body = assignJobIDsBody{Requests: v.Requests}
	case SplitFileReferences:
		b := splitFileReferencesBody{}
		for _, req := range v.Requests {
			wr := splitFileReferenceWireRequest{Filename: req.Filename, FromPartitionID: req.FromPartitionID}
			for _, nr := range req.NewReferences {
				wr.NewReferences = append(wr.NewReferences, toWireReference(nr))
			}
			b.Requests = append(b.Requests, wr)
		}
		body = b
	case ReplaceFileReferences:
		body = replaceFileReferencesBody{
			JobID:          v.JobID,
			PartitionID:    v.PartitionID,
			InputFilenames: v.InputFilenames,
			NewReference:   toWireReference(v.NewReference),
			NewFilename:    v.NewReference.Filename,
		}
	case DeleteFiles:
		body = deleteFilesBody{Filenames: v.Filenames}
	case ClearFiles:
		body = struct{}{}
	default:
		return Envelope{}, fmt.Errorf("txn: unknown file transaction type %T", t)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("txn: encode %s: %w", t.TypeTag(), err)
	}
	return Envelope{Type: t.TypeTag(), Body: raw}, nil
}

// DecodeFile reverses EncodeFile.
func DecodeFile(e Envelope) (FileTransaction, error) {
	switch e.Type {
	case "AddFiles":
		var b addFilesBody
		if err := json.Unmarshal(e.Body, &b); err != nil {
			return nil, fmt.Errorf("txn: decode AddFiles: %w", err)
		}
		files := make([]*types.AllReferencesToAFile, 0, len(b.Files))
		for _, wf := range b.Files {
			files = append(files, wf.toFile())
		}
		return AddFiles{Files: files}, nil
	case "AssignJobIds":
		var b assignJobIDsBody
		if err := json.Unmarshal(e.Body, &b); err != nil {
			return nil, fmt.Errorf("txn: decode AssignJobIds: %w", err)
		}
		return AssignJobIds{Requests: b.Requests}, nil
	case "SplitFileReferences":
		var b splitFileReferencesBody
		if err := json.Unmarshal(e.Body, &b); err != nil {
			return nil, fmt.Errorf("txn: decode SplitFileReferences: %w", err)
		}
		reqs := make([]SplitFileReferenceRequest, 0, len(b.Requests))
		for _, wr := range b.Requests {
			refs := make([]*types.FileReference, 0, len(wr.NewReferences))
			for _, nr := range wr.NewReferences {
				refs = append(refs, nr.toReference(wr.Filename))
			}
			reqs = append(reqs, SplitFileReferenceRequest{Filename: wr.Filename, FromPartitionID: wr.FromPartitionID, NewReferences: refs})
		}
		return SplitFileReferences{Requests: reqs}, nil
	case "ReplaceFileReferences":
		var b replaceFileReferencesBody
		if err := json.Unmarshal(e.Body, &b); err != nil {
			return nil, fmt.Errorf("txn: decode ReplaceFileReferences: %w", err)
		}
		return ReplaceFileReferences{
			JobID:          b.JobID,
			PartitionID:    b.PartitionID,
			InputFilenames: b.InputFilenames,
			NewReference:   b.NewReference.toReference(b.NewFilename),
		}, nil
	case "DeleteFiles":
		var b deleteFilesBody
		if err := json.Unmarshal(e.Body, &b); err != nil {
			return nil, fmt.Errorf("txn: decode DeleteFiles: %w", err)
		}
		return DeleteFiles{Filenames: b.Filenames}, nil
	case "ClearFiles":
		return ClearFiles{}, nil
	default:
		return nil, fmt.Errorf("txn: unknown file transaction tag %q", e.Type)
	}
}

// --- Partition transaction wire bodies ---

type wireRange struct {
	FieldName    string      `json:"fieldName"`
	Min          types.RowKeyValue `json:"min"`
	Max          types.RowKeyValue `json:"max"`
	MaxUnbounded bool        `json:"maxUnbounded"`
}

type wireRegion struct {
	Ranges []wireRange `json:"ranges"`
}

func toWireRegion(r types.Region) wireRegion {
	w := wireRegion{}
	for _, rg := range r.Ranges {
		w.Ranges = append(w.Ranges, wireRange{FieldName: rg.FieldName, Min: rg.Min, Max: rg.Max, MaxUnbounded: rg.MaxUnbounded})
	}
	return w
}

func (w wireRegion) toRegion() types.Region {
	r := types.Region{}
	for _, rg := range w.Ranges {
		r.Ranges = append(r.Ranges, types.Range{FieldName: rg.FieldName, Min: rg.Min, Max: rg.Max, MaxUnbounded: rg.MaxUnbounded})
	}
	return r
}

type wirePartition struct {
	PartitionID     string   `json:"partitionId"`
	IsLeaf          bool     `json:"isLeaf"`
	ParentPartitionID *string `json:"parentPartitionId"`
	ChildPartitionIDs []string `json:"childPartitionIds"`
	Region          wireRegion `json:"region"`
	Dimension       int      `json:"dimension"`
}

func toWirePartition(p *types.Partition) wirePartition {
	w := wirePartition{
		PartitionID:       p.ID,
		IsLeaf:            p.IsLeaf,
		ChildPartitionIDs: p.ChildIDs,
		Region:            toWireRegion(p.Region),
		Dimension:         p.SplitDimension,
	}
	if !p.IsRoot() {
		parent := p.ParentID
		w.ParentPartitionID = &parent
	}
	return w
}

func (w wirePartition) toPartition() *types.Partition {
	p := &types.Partition{
		ID:             w.PartitionID,
		IsLeaf:         w.IsLeaf,
		ChildIDs:       w.ChildPartitionIDs,
		Region:         w.Region.toRegion(),
		SplitDimension: w.Dimension,
	}
	if w.ParentPartitionID != nil {
		p.ParentID = *w.ParentPartitionID
	}
	return p
}

type initialisePartitionsBody struct {
	Partitions []wirePartition `json:"partitions"`
}

type splitPartitionBody struct {
	SplitPartitionID string        `json:"splitPartitionId"`
	NewChild1        wirePartition `json:"newChild1"`
	NewChild2        wirePartition `json:"newChild2"`
}

// EncodePartition converts a PartitionTransaction into its canonical Envelope.
func EncodePartition(t PartitionTransaction) (Envelope, error) {
	var body interface{}
	switch v := t.(type) {
	case InitialisePartitions:
		b := initialisePartitionsBody{}
		for _, p := range v.Partitions {
			b.Partitions = append(b.Partitions, toWirePartition(p))
		}
		body = b
	case SplitPartition:
		body = splitPartitionBody{
			SplitPartitionID: v.SplitPartitionID,
			NewChild1:        toWirePartition(v.NewChild1),
			NewChild2:        toWirePartition(v.NewChild2),
		}
	case ClearPartitions:
		body = struct{}{}
	default:
		return Envelope{}, fmt.Errorf("txn: unknown partition transaction type %T", t)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("txn: encode %s: %w", t.TypeTag(), err)
	}
	return Envelope{Type: t.TypeTag(), Body: raw}, nil
}

// DecodePartition reverses EncodePartition.
func DecodePartition(e Envelope) (PartitionTransaction, error) {
	switch e.Type {
	case "InitialisePartitions":
		var b initialisePartitionsBody
		if err := json.Unmarshal(e.Body, &b); err != nil {
			return nil, fmt.Errorf("txn: decode InitialisePartitions: %w", err)
		}
		partitions := make([]*types.Partition, 0, len(b.Partitions))
		for _, wp := range b.Partitions {
			partitions = append(partitions, wp.toPartition())
		}
		return InitialisePartitions{Partitions: partitions}, nil
	case "SplitPartition":
		var b splitPartitionBody
		if err := json.Unmarshal(e.Body, &b); err != nil {
			return nil, fmt.Errorf("txn: decode SplitPartition: %w", err)
		}
		return SplitPartition{
			SplitPartitionID: b.SplitPartitionID,
			NewChild1:        b.NewChild1.toPartition(),
			NewChild2:        b.NewChild2.toPartition(),
		}, nil
	case "ClearPartitions":
		return ClearPartitions{}, nil
	default:
		return nil, fmt.Errorf("txn: unknown partition transaction tag %q", e.Type)
	}
}
