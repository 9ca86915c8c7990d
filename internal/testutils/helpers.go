package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/stretchr/testify/require"
)

// File names of the sample network, as the scheduler exports them.
const (
	OperationsFile   = "NET - PAYROLL - Operazioni.csv"
	InternalFile     = "NET - PAYROLL - Relazioni Interne.csv"
	PredecessorsFile = "NET - PAYROLL - Predecessori Esterni.csv"
	SuccessorsFile   = "NET - PAYROLL - Successori Esterni.csv"
	InstructionsFile = "NET - PAYROLL - Istruzioni Operatore.csv"
	AdditionalFile   = "Dettagli Job Esterni.csv"
)

// SampleNet is the network name embedded in the sample file names.
const SampleNet = "PAYROLL"

// Sample CSV contents. Full mode yields 7 nodes and 6 links:
//
//	HR/EXPORT -> LOAD -> CALC -> PRINT -> ARCHIVE -> LEDGER/POST
//	BANK/RATES -> CALC
//
// The PAYROLL/LOAD predecessor of CALC masquerades as external and is ignored.
var (
	OperationsCSV = "Nome Job;Tipo;Descrizione\n" +
		"LOAD;JOB;Load input\n" +
		"CALC;SCRIPT;Compute\n" +
		"PRINT;JOB;Print\n" +
		"ARCHIVE;;Archive\n"
	InternalCSV = "Nome Job Predecessore;Nome Job\n" +
		"LOAD;CALC\n" +
		"CALC;PRINT\n" +
		"PRINT;ARCHIVE\n"
	PredecessorsCSV = "Net Predecessore;Nome Job Predecessore;Nome Job\n" +
		"HR;EXPORT;LOAD\n" +
		"PAYROLL;LOAD;CALC\n" +
		"BANK;RATES;CALC\n"
	SuccessorsCSV = "Net Successore;Nome Job;Nome Job Successore\n" +
		"LEDGER;ARCHIVE;POST\n"
	InstructionsCSV = "Nome Job;Istruzioni\n" +
		"CALC;Rerun from step 2\n" +
		"GHOST;Ignored\n"
	AdditionalCSV = "Nome Job;Net;Descrizione\n" +
		"EXPORT;HR;Export employees\n" +
		"RATES;;Daily rates\n"
)

// SampleFiles returns the sample network as in-memory sources.
func SampleFiles() ports.InputFiles {
	return ports.InputFiles{
		Operations:           ports.BytesSource{Label: OperationsFile, Data: []byte(OperationsCSV)},
		InternalRelations:    ports.BytesSource{Label: InternalFile, Data: []byte(InternalCSV)},
		ExternalPredecessors: ports.BytesSource{Label: PredecessorsFile, Data: []byte(PredecessorsCSV)},
		ExternalSuccessors:   ports.BytesSource{Label: SuccessorsFile, Data: []byte(SuccessorsCSV)},
		OperatorInstructions: ports.BytesSource{Label: InstructionsFile, Data: []byte(InstructionsCSV)},
		Additional: []ports.Source{
			ports.BytesSource{Label: AdditionalFile, Data: []byte(AdditionalCSV)},
		},
	}
}

// SampleDataset returns the sample network already parsed.
func SampleDataset() *domain.Dataset {
	return &domain.Dataset{
		Operations: []domain.Record{
			domain.RecordOf(domain.ColJobName, "LOAD", domain.ColType, "JOB", domain.ColDescription, "Load input"),
			domain.RecordOf(domain.ColJobName, "CALC", domain.ColType, "SCRIPT", domain.ColDescription, "Compute"),
			domain.RecordOf(domain.ColJobName, "PRINT", domain.ColType, "JOB", domain.ColDescription, "Print"),
			domain.RecordOf(domain.ColJobName, "ARCHIVE", domain.ColType, "", domain.ColDescription, "Archive"),
		},
		InternalRelations: []domain.Record{
			domain.RecordOf(domain.ColPredecessorJob, "LOAD", domain.ColJobName, "CALC"),
			domain.RecordOf(domain.ColPredecessorJob, "CALC", domain.ColJobName, "PRINT"),
			domain.RecordOf(domain.ColPredecessorJob, "PRINT", domain.ColJobName, "ARCHIVE"),
		},
		ExternalPredecessors: []domain.Record{
			domain.RecordOf(domain.ColPredecessorNet, "HR", domain.ColPredecessorJob, "EXPORT", domain.ColJobName, "LOAD"),
			domain.RecordOf(domain.ColPredecessorNet, "PAYROLL", domain.ColPredecessorJob, "LOAD", domain.ColJobName, "CALC"),
			domain.RecordOf(domain.ColPredecessorNet, "BANK", domain.ColPredecessorJob, "RATES", domain.ColJobName, "CALC"),
		},
		ExternalSuccessors: []domain.Record{
			domain.RecordOf(domain.ColSuccessorNet, "LEDGER", domain.ColJobName, "ARCHIVE", domain.ColSuccessorJob, "POST"),
		},
		OperatorInstructions: []domain.Record{
			domain.RecordOf(domain.ColJobName, "CALC", domain.ColInstructions, "Rerun from step 2"),
			domain.RecordOf(domain.ColJobName, "GHOST", domain.ColInstructions, "Ignored"),
		},
		Additional: []domain.AuxiliaryDataset{{
			Source: AdditionalFile,
			Records: []domain.Record{
				domain.RecordOf(domain.ColJobName, "EXPORT", domain.ColNet, "HR", domain.ColDescription, "Export employees"),
				domain.RecordOf(domain.ColJobName, "RATES", domain.ColNet, "", domain.ColDescription, "Daily rates"),
			},
		}},
		OperationsSource: OperationsFile,
		NetName:          SampleNet,
	}
}

// WriteFile writes content to path, failing the test immediately on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", path)
}

// WriteSampleNetwork writes the sample exports into a temporary directory and
// returns its absolute path. It fails the test immediately on error.
func WriteSampleNetwork(t *testing.T) string {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	files := map[string]string{
		OperationsFile:   OperationsCSV,
		InternalFile:     InternalCSV,
		PredecessorsFile: PredecessorsCSV,
		SuccessorsFile:   SuccessorsCSV,
		InstructionsFile: InstructionsCSV,
		AdditionalFile:   AdditionalCSV,
	}
	for name, content := range files {
		WriteFile(t, filepath.Join(dir, name), content)
	}
	return dir
}
