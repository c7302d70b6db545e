package handler

import (
	"time"

	"github.com/xxxsen/pinboard/internal/model"
	"github.com/xxxsen/pinboard/internal/service"
)

type tagView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// pinSummary is the list/create/update shape; tags are plain ids.
type pinSummary struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	Tags  []int64   `json:"tags"`
	Date  time.Time `json:"date"`
	Link  string    `json:"link"`
}

// pinDetail is the retrieve shape; tags are embedded.
type pinDetail struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	Tags  []tagView `json:"tags"`
	Date  time.Time `json:"date"`
	Link  string    `json:"link"`
}

type pinImage struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

type userView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type authView struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func newTagView(tag model.Tag) tagView {
	return tagView{ID: tag.ID, Name: tag.Name}
}

func newTagViews(tags []model.Tag) []tagView {
	out := make([]tagView, 0, len(tags))
	for _, tag := range tags {
		out = append(out, newTagView(tag))
	}
	return out
}

func newPinSummary(pin *model.Pin) pinSummary {
	tags := pin.TagIDs
	if tags == nil {
		tags = []int64{}
	}
	return pinSummary{ID: pin.ID, Title: pin.Title, Tags: tags, Date: pin.Date, Link: pin.Link}
}

func newPinDetail(detail *service.PinDetail) pinDetail {
	return pinDetail{
		ID:    detail.Pin.ID,
		Title: detail.Pin.Title,
		Tags:  newTagViews(detail.Tags),
		Date:  detail.Pin.Date,
		Link:  detail.Pin.Link,
	}
}

func newUserView(user *model.User) userView {
	return userView{ID: user.ID, Email: user.Email}
}
