package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the read-only GraphQL schema over the session.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	boxType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"north_east": &graphql.Field{Type: coordinateType},
			"south_west": &graphql.Field{Type: coordinateType},
		},
	})

	cityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "City",
		Fields: graphql.Fields{
			"name":    &graphql.Field{Type: graphql.String},
			"country": &graphql.Field{Type: graphql.String},
			"lat":     &graphql.Field{Type: graphql.Float},
			"lng":     &graphql.Field{Type: graphql.Float},
		},
	})

	entryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Entry",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"lat":         &graphql.Field{Type: graphql.Float},
			"lng":         &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.String},
			"name": &graphql.Field{Type: graphql.String},
			"lat":  &graphql.Field{Type: graphql.Float},
			"lng":  &graphql.Field{Type: graphql.Float},
		},
	})

	draftType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Draft",
		Fields: graphql.Fields{
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	violationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Violation",
		Fields: graphql.Fields{
			"rule":    &graphql.Field{Type: graphql.String},
			"min":     &graphql.Field{Type: graphql.Int},
			"max":     &graphql.Field{Type: graphql.Int},
			"actual":  &graphql.Field{Type: graphql.Int},
			"message": &graphql.Field{Type: graphql.String},
		},
	})

	stateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "State",
		Fields: graphql.Fields{
			"cities":       &graphql.Field{Type: graphql.NewList(cityType)},
			"viewport":     &graphql.Field{Type: boxType},
			"selected":     &graphql.Field{Type: entryType},
			"entries":      &graphql.Field{Type: graphql.NewList(entryType)},
			"form_visible": &graphql.Field{Type: graphql.Boolean},
			"draft":        &graphql.Field{Type: draftType},
			"violations":   &graphql.Field{Type: graphql.NewList(violationType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"state": &graphql.Field{
				Type:        stateType,
				Description: "Current session state",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Session.Snapshot(p.Context)
					if err != nil {
						return nil, err
					}
					return toState(s), nil
				},
			},
			"mapEntries": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Entries projected for the map overlay",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					markers, err := deps.Session.MapEntries(p.Context)
					if err != nil {
						return nil, err
					}
					return toMarkers(markers), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
