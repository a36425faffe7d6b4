package easynews

import (
	"context"
	"errors"
)

// SearchAll drives Search across pages for one query string until a
// budget is hit or the upstream runs dry:
//
//   - the aggregate never exceeds the total-result budget;
//   - at most MaxPages pages are fetched;
//   - a page with zero new records ends the walk (not an error);
//   - a page whose first record hash equals page 1's first record hash
//     is treated as upstream pagination drift and ends the walk. This
//     first-record heuristic can miss reordered duplicates; the global
//     hash dedup downstream catches those.
//
// A mid-walk failure after at least one successful page returns the
// partial aggregate with a warning: partial coverage beats none.
// Credential rejection is the exception and always propagates.
func (c *Client) SearchAll(ctx context.Context, query string) (*SearchResponse, error) {
	aggregate := &SearchResponse{}
	firstPageHash := ""

	for page := 1; page <= c.maxPages; page++ {
		remaining := c.totalMaxResults - len(aggregate.Data)
		if remaining <= 0 {
			break
		}
		pageSize := c.maxResultsPerPage
		if remaining < pageSize {
			pageSize = remaining
		}

		response, err := c.Search(ctx, SearchQuery{
			Query:    query,
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			if len(aggregate.Data) > 0 && !errors.Is(err, ErrUnauthorized) {
				c.logger.Warn("pagination aborted for", query, "after", page-1, "pages, keeping",
					len(aggregate.Data), "results:", err)
				break
			}
			return nil, err
		}

		if len(response.Data) == 0 {
			c.logger.Debug("no more results for:", query, "at page", page)
			break
		}

		if page == 1 {
			firstPageHash = response.Data[0].Hash
			aggregate.Results = response.Results
			aggregate.UnfilteredResults = response.UnfilteredResults
			aggregate.DownURL = response.DownURL
			aggregate.Farm = response.Farm
			aggregate.Port = response.Port
		} else if response.Data[0].Hash == firstPageHash {
			c.logger.Debug("duplicate page detected for:", query, "at page", page)
			break
		}

		aggregate.Data = append(aggregate.Data, response.Data...)
	}

	if len(aggregate.Data) > c.totalMaxResults {
		aggregate.Data = aggregate.Data[:c.totalMaxResults]
	}
	aggregate.Returned = len(aggregate.Data)
	return aggregate, nil
}
