package swaggerkit

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:generate swag init -d ../../../ -g cmd/taskdata-worker/main.go -o . --outputTypes json --instanceName ops --parseInternal

// Instance is the swag registry name of the ops document
const Instance = "ops"

//go:embed ops_swagger.json
var opsDoc string

type embedded struct{}

func (embedded) ReadDoc() string { return opsDoc }

func init() {
	swag.Register(Instance, embedded{})
}
