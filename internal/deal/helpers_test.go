package deal

import "time"

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// daysAgo renders a timestamp n whole days before testNow.
func daysAgo(n int) string {
	return testNow.AddDate(0, 0, -n).Format(time.RFC3339)
}

// daysAhead renders a timestamp n whole days after testNow.
func daysAhead(n int) string {
	return testNow.AddDate(0, 0, n).Format(time.RFC3339)
}

func snap(props map[string]string) Snapshot {
	return NewSnapshot("deal-1", props)
}

// healthyProps is a deal where no risk signal fires.
func healthyProps() map[string]string {
	return map[string]string{
		PropName:             "Acme Renewal",
		PropAmount:           "50000",
		PropStage:            "contractsent",
		PropCloseDate:        daysAhead(30),
		PropOwnerID:          "42",
		PropLastContacted:    daysAgo(2),
		PropCreatedDate:      daysAgo(20),
		PropLastModified:     daysAgo(1),
		PropStageProbability: "0.8",
		PropContactCount:     "3",
		PropNoteCount:        "4",
	}
}
