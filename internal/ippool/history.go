package ippool

import (
	"encoding/json"
	"os"

	"github.com/fireworks/gitengine/internal/config"
)

// historyRecord is the on-disk shape of one persisted best-stat entry.
type historyRecord struct {
	Host      string  `json:"host"`
	Port      int     `json:"port"`
	IP        string  `json:"ip"`
	LatencyMS float64 `json:"latencyMs"`
}

// loadHistory reads the persisted history file, if any, into p.history.
// A missing file is not an error — the History source simply contributes
// nothing until the first save.
func (p *Pool) loadHistory() {
	if p.historyPath == "" {
		return
	}
	data, err := os.ReadFile(p.historyPath)
	if err != nil {
		return
	}
	var records []historyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return
	}
	p.historyMu.Lock()
	defer p.historyMu.Unlock()
	for _, r := range records {
		k := key{host: r.Host, port: r.Port}
		p.history[k] = append(p.history[k], IpStat{IP: r.IP, Port: r.Port, LatencyMS: r.LatencyMS})
	}
}

// saveHistory persists the current cache's best entries, atomically, so the
// History source has something to offer on the next process start.
func (p *Pool) saveHistory() {
	if p.historyPath == "" {
		return
	}
	p.mu.Lock()
	var records []historyRecord
	for k, entry := range p.cache {
		var best *IpStat
		for i := range entry.stats {
			if best == nil || entry.stats[i].LatencyMS < best.LatencyMS {
				best = &entry.stats[i]
			}
		}
		if best != nil {
			records = append(records, historyRecord{Host: k.host, Port: k.port, IP: best.IP, LatencyMS: best.LatencyMS})
		}
	}
	p.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return
	}
	_ = config.WriteAtomic(p.historyPath, data)
}
