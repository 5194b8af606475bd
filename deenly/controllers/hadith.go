package controllers

import (
	"deenly/deenly/services/hadith"
)

type HadithController struct {
	lib *hadith.Library
}

func NewHadithController(lib *hadith.Library) *HadithController {
	return &HadithController{lib: lib}
}

func (c *HadithController) Collections() []hadith.Collection {
	return c.lib.Collections()
}

func (c *HadithController) Collection(id string) (hadith.Collection, error) {
	return c.lib.Collection(id)
}

func (c *HadithController) Search(query string) []hadith.SearchResult {
	if res := c.lib.Search(query); res != nil {
		return res
	}
	return []hadith.SearchResult{}
}
