package entity

// Roles emitidos por el servicio de autenticación. El motor no gestiona
// usuarios; solo decide qué operaciones puede invocar cada rol.
const (
	RoleAdmin       = "admin"
	RoleDistributor = "distributor" // crea asignaciones raíz
	RoleAssociation = "association" // sub-asigna a agricultores
	RoleFarmer      = "farmer"      // registra siembra y resultados
	RoleProcessor   = "processor"   // recibe fibra y confirma entregas
)
