package console

import "time"

// Change is the payload of a "<resource>.<kind>" event.
type Change struct {
	Revision   uint64 `json:"revision"`
	Generation uint64 `json:"generation,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// SyncStatus is the payload of sync.done and sync.failed: the latest sync
// outcome of one resource.
type SyncStatus struct {
	Resource   string    `json:"resource"`
	OK         bool      `json:"ok"`
	Generation uint64    `json:"generation"`
	Count      int       `json:"count,omitempty"`
	Warnings   int       `json:"warnings,omitempty"`
	Error      string    `json:"error,omitempty"`
	Hint       string    `json:"hint,omitempty"`
	At         time.Time `json:"at"`
}

// StatusKey names the resource the status describes. Subscribers joining
// later are sent the newest status per key.
func (s SyncStatus) StatusKey() string { return s.Resource }

func (s *Service) publishSyncStatus(report *SyncReport) {
	at := s.now()
	for _, resource := range []string{"flow", "phones"} {
		rr := report.Flow
		if resource == "phones" {
			rr = report.Phones
		}
		if !rr.Attempted || rr.Stale {
			continue
		}
		st := SyncStatus{
			Resource:   resource,
			OK:         rr.err == nil,
			Generation: report.Generation,
			Count:      rr.Count,
			Warnings:   len(rr.Warnings),
			Error:      rr.Error,
			Hint:       rr.Hint,
			At:         at,
		}
		kind := "done"
		if !st.OK {
			kind = "failed"
		}
		s.publisher.PublishChange("sync", kind, st)
	}
}
