package ibrequestdto

import "github.com/LavaJover/shvark-ib-service/internal/domain"

type ListIBRequestsOutput struct {
	Requests []*domain.IBRequest
	Total    int64
	Page     int
	Limit    int
}
