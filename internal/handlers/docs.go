package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Sales Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Sales Platform API",
			"description": "Weather-driven hourly sales forecasting for Suwon city sub-districts, backed by PostgreSQL and KMA weather data",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Sales Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/forecast": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get hourly sales for a district and date",
					"description": "Returns ten hourly sales figures for the given gu/dong and date, from stored actuals where available and model predictions otherwise",
					"parameters": []map[string]interface{}{
						{
							"name":        "gu",
							"in":          "query",
							"description": "District name, e.g. 팔달구",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "dong",
							"in":          "query",
							"description": "Sub-district name, e.g. 행궁동",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "date",
							"in":          "query",
							"description": "Target date (YYYY-MM-DD)",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"gu":              map[string]string{"type": "string"},
											"dong":            map[string]string{"type": "string"},
											"dong_normalized": map[string]string{"type": "string"},
											"date":            map[string]string{"type": "string"},
											"day_of_week":     map[string]string{"type": "integer"},
											"weather": map[string]interface{}{
												"type": "object",
												"properties": map[string]interface{}{
													"temp":   map[string]string{"type": "number"},
													"rain":   map[string]string{"type": "number"},
													"source": map[string]string{"type": "string"},
													"error":  map[string]interface{}{"type": "string", "nullable": true},
												},
											},
											"data_type": map[string]string{"type": "string"},
											"results": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"hour":       map[string]string{"type": "integer"},
														"hour_label": map[string]string{"type": "string"},
														"amount":     map[string]string{"type": "string"},
														"count":      map[string]string{"type": "string"},
														"source":     map[string]string{"type": "string"},
													},
												},
											},
											"total_amount": map[string]string{"type": "string"},
											"total_count":  map[string]string{"type": "string"},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{
							"description": "Missing or invalid parameters",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"error":   map[string]string{"type": "string"},
											"message": map[string]string{"type": "string"},
											"code":    map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/locations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List supported districts",
					"description": "Returns every gu and its dongs with their forecast grid coordinates",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"gus": map[string]interface{}{
												"type":  "array",
												"items": map[string]string{"type": "string"},
											},
											"locations": map[string]interface{}{
												"type": "object",
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
