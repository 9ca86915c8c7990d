package domain

// Role identifies the purpose of an input file.
type Role string

const (
	RoleOperations           Role = "operations"
	RoleInternalRelations    Role = "internalRels"
	RoleExternalPredecessors Role = "externalPreds"
	RoleExternalSuccessors   Role = "externalSuccs"
	RoleOperatorInstructions Role = "operatorInstructions"
	RoleAdditional           Role = "additional"
)

// RequiredRoles lists the roles without which no dataset can be assembled.
var RequiredRoles = []Role{
	RoleOperations,
	RoleInternalRelations,
	RoleExternalPredecessors,
	RoleExternalSuccessors,
}

// Roles lists every role in canonical order.
var Roles = []Role{
	RoleOperations,
	RoleInternalRelations,
	RoleExternalPredecessors,
	RoleExternalSuccessors,
	RoleOperatorInstructions,
	RoleAdditional,
}
