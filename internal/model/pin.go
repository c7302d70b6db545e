package model

import "time"

type Pin struct {
	ID     int64     `json:"id"`
	UserID int64     `json:"user_id"`
	Title  string    `json:"title"`
	Link   string    `json:"link"`
	Image  string    `json:"image"` // file store key, empty when unset
	Date   time.Time `json:"date"`
	Mtime  int64     `json:"mtime"`
	TagIDs []int64   `json:"tag_ids"`
}

type PinTag struct {
	PinID int64 `json:"pin_id"`
	TagID int64 `json:"tag_id"`
}
