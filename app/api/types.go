package api

import (
	"freefinder/app/database"
	"freefinder/app/tasks"
)

type Handler struct {
	repo      database.ListingStore
	scheduler tasks.TaskSchedulerInterface
	newCrawl  tasks.TaskFactory
	region    string
	version   string
}
