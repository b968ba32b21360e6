package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Rosehill Valentine's Ticket Sorter API",
        "description": "Sorts purchased Valentine's Day tickets into classroom delivery routes",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/sort": {
            "post": {
                "summary": "Run the sort engine over a ticket batch and return a delivery plan",
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "422": {
                        "description": "Sort engine invariant violation"
                    }
                }
            }
        },
        "/sort/{runId}": {
            "get": {
                "summary": "Fetch a previously computed plan by run ID",
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Plan not found or expired"
                    }
                }
            }
        },
        "/sort/{runId}/resort": {
            "post": {
                "summary": "Re-run the sort engine over the stored batch with new parameters",
                "responses": {
                    "202": {
                        "description": "Accepted"
                    },
                    "404": {
                        "description": "Plan not found or expired"
                    }
                }
            }
        },
        "/sort/{runId}/export.csv": {
            "get": {
                "summary": "Export a plan's classroom visits as CSV",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/sort/{runId}/export.pdf": {
            "get": {
                "summary": "Export a plan's classroom visits as PDF",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
