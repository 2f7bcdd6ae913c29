package main

import (
	"fmt"
	"time"
)

type target struct {
	Endpoint string
	Method   string
	Path     string
	Weight   int
	Body     func(opts *runOptions, resourceID string) ([]byte, error)
}

type profile struct {
	Name         string
	VUs          int
	Duration     time.Duration
	DefaultP99MS int
	Targets      []target
}

func builtinProfile(name string) (profile, error) {
	switch name {
	case "check_light":
		return profile{
			Name:         name,
			VUs:          8,
			Duration:     60 * time.Second,
			DefaultP99MS: 100,
			Targets: []target{
				{Endpoint: "check", Method: "POST", Path: "/access/api/check", Weight: 10, Body: buildCheckBody},
			},
		}, nil
	case "check_heavy":
		return profile{
			Name:         name,
			VUs:          64,
			Duration:     300 * time.Second,
			DefaultP99MS: 250,
			Targets: []target{
				{Endpoint: "check", Method: "POST", Path: "/access/api/check", Weight: 10, Body: buildCheckBody},
			},
		}, nil
	case "check_mixed":
		return profile{
			Name:         name,
			VUs:          32,
			Duration:     120 * time.Second,
			DefaultP99MS: 250,
			Targets: []target{
				{Endpoint: "check", Method: "POST", Path: "/access/api/check", Weight: 7, Body: buildCheckBody},
				{Endpoint: "graph_filter", Method: "GET", Path: "/access/api/graph-filter", Weight: 2},
				{Endpoint: "org_units", Method: "GET", Path: "/access/api/org-units", Weight: 1},
			},
		}, nil
	default:
		return profile{}, fmt.Errorf("unknown profile %q (check_light|check_heavy|check_mixed)", name)
	}
}
