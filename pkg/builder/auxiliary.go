package builder

import (
	"strings"

	"github.com/aretw0/twsgraph/pkg/domain"
)

type auxCandidate struct {
	net    string
	record domain.Record
}

// auxIndex groups auxiliary records by job name, keeping dataset order and then
// record order so that the first match wins.
type auxIndex map[string][]auxCandidate

func newAuxIndex(datasets []domain.AuxiliaryDataset) auxIndex {
	idx := make(auxIndex)
	for _, ds := range datasets {
		for _, rec := range ds.Records {
			job := strings.TrimSpace(rec.Value(domain.ColJobName))
			if job == "" {
				continue
			}
			net := strings.TrimSpace(rec.Value(domain.ColNet))
			if net == "" {
				net = ds.NetName
			}
			idx[job] = append(idx[job], auxCandidate{net: net, record: rec})
		}
	}
	return idx
}

// lookup returns the first record for job whose network is unknown or equals net.
func (idx auxIndex) lookup(job, net string) (domain.Record, bool) {
	for _, c := range idx[job] {
		if c.net == "" || c.net == net {
			return c.record, true
		}
	}
	return domain.Record{}, false
}
