package salesforce

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// Task describes an activity to log against an Opportunity.
type Task struct {
	Subject     string
	Description string
	Priority    string // High, Normal or Low
	Due         time.Time
	OwnerID     string
	WhatID      string
}

// CreateTask inserts a Task related to task.WhatID and returns the new
// Salesforce ID.
func CreateTask(ctx context.Context, c Client, task Task) (string, error) {
	if task.WhatID == "" {
		return "", eris.New("sf: related record id is required for task")
	}
	if task.Subject == "" {
		return "", eris.New("sf: task Subject is required")
	}

	fields := map[string]any{
		"Subject":      task.Subject,
		"Description":  task.Description,
		"Priority":     task.Priority,
		"Status":       "Not Started",
		"ActivityDate": task.Due.Format("2006-01-02"),
		"WhatId":       task.WhatID,
	}
	if task.OwnerID != "" {
		fields["OwnerId"] = task.OwnerID
	}

	id, err := c.InsertOne(ctx, "Task", fields)
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: create task for %s", task.WhatID))
	}
	return id, nil
}
