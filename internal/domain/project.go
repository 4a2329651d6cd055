package domain

import "time"

// Project 是项目目录中的一个条目，通过 REST 只读查询。
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Vote 表示一次针对项目的投票。选项与计数按下标一一对应。
type Vote struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	Counts    []int     `json:"counts"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
