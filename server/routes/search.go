// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

var paramValidate = validator.New()

// Search finds entries by ?keyword= in name, translation or note, optionally
// within ?category=, paginated by ?page= and ?limit=.
func (api *API) Search(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	page, limit, err := pagination(query.Get("page"), query.Get("limit"))
	if err != nil {
		return err
	}

	result, err := api.Service.Search(terms.SearchQuery{
		Keyword:  query.Get("keyword"),
		Category: query.Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "ok", result)
}

// pagination parses and checks page and limit. Empty values take the
// defaults: page 1 and Request.PageSize.
func pagination(rawPage, rawLimit string) (int, int, error) {
	page, limit := 1, config.Global.Request.PageSize
	problems := map[string][]string{}

	if rawPage != "" {
		var err error
		if page, err = strconv.Atoi(rawPage); err != nil || paramValidate.Var(page, "min=1") != nil {
			problems["page"] = append(problems["page"], "must be a positive integer")
		}
	}

	if rawLimit != "" {
		maxLimit := config.Global.Request.MaxPageSize

		var err error
		if limit, err = strconv.Atoi(rawLimit); err != nil || paramValidate.Var(limit, fmt.Sprintf("min=1,max=%d", maxLimit)) != nil {
			problems["limit"] = append(problems["limit"], fmt.Sprintf("must be between 1 and %d", maxLimit))
		}
	}

	if len(problems) > 0 {
		return 0, 0, &HTTPError{Status: http.StatusBadRequest, Message: "invalid pagination", Details: problems}
	}

	return page, limit, nil
}
