package domain

// AuxiliaryDataset holds extra metadata rows for jobs owned by other networks.
type AuxiliaryDataset struct {
	// Source is the identifying label (usually the file name) of the export.
	Source string `json:"source"`
	// NetName is the network the rows belong to, when known from context.
	// Rows with an empty Net column inherit it.
	NetName string   `json:"netName,omitempty"`
	Records []Record `json:"records"`
}

// Dataset is the aggregate of the parsed exports of one network.
// A Dataset is treated as a value: appending auxiliary data yields a new
// Dataset that shares the untouched record sequences.
type Dataset struct {
	Operations           []Record `json:"operations"`
	InternalRelations    []Record `json:"internalRelations"`
	ExternalPredecessors []Record `json:"externalPredecessors"`
	ExternalSuccessors   []Record `json:"externalSuccessors"`
	OperatorInstructions []Record `json:"operatorInstructions"`

	Additional []AuxiliaryDataset `json:"additional,omitempty"`

	// OperationsSource is the label of the operations export, used to derive
	// the network name.
	OperationsSource string `json:"operationsSource"`
	// NetName is the network name derived from OperationsSource, empty when
	// the label does not embed one.
	NetName string `json:"netName,omitempty"`
}

// Validate checks that every required record sequence is present.
func (d *Dataset) Validate() error {
	if d == nil {
		return &GraphBuildError{Reason: "dataset is nil"}
	}
	switch {
	case d.Operations == nil:
		return &GraphBuildError{Reason: "operations records missing"}
	case d.InternalRelations == nil:
		return &GraphBuildError{Reason: "internal relation records missing"}
	case d.ExternalPredecessors == nil:
		return &GraphBuildError{Reason: "external predecessor records missing"}
	case d.ExternalSuccessors == nil:
		return &GraphBuildError{Reason: "external successor records missing"}
	}
	return nil
}

// WithAdditional returns a copy of d whose auxiliary list is the current one
// followed by extra. The receiver is left untouched.
func (d *Dataset) WithAdditional(extra ...AuxiliaryDataset) *Dataset {
	c := *d
	c.Additional = make([]AuxiliaryDataset, 0, len(d.Additional)+len(extra))
	c.Additional = append(c.Additional, d.Additional...)
	c.Additional = append(c.Additional, extra...)
	return &c
}

// Summary counts the records of each sequence.
type Summary struct {
	Operations           int `json:"operations"`
	InternalRelations    int `json:"internalRelations"`
	ExternalPredecessors int `json:"externalPredecessors"`
	ExternalSuccessors   int `json:"externalSuccessors"`
	OperatorInstructions int `json:"operatorInstructions"`
	AdditionalDatasets   int `json:"additionalDatasets"`
	AdditionalRecords    int `json:"additionalRecords"`
}

// Summary returns the record counts of d.
func (d *Dataset) Summary() Summary {
	s := Summary{
		Operations:           len(d.Operations),
		InternalRelations:    len(d.InternalRelations),
		ExternalPredecessors: len(d.ExternalPredecessors),
		ExternalSuccessors:   len(d.ExternalSuccessors),
		OperatorInstructions: len(d.OperatorInstructions),
		AdditionalDatasets:   len(d.Additional),
	}
	for _, aux := range d.Additional {
		s.AdditionalRecords += len(aux.Records)
	}
	return s
}
