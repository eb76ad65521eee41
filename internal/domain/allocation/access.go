package allocation

import (
	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// Actor llamador autenticado: el id y el rol vienen del token.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) isAdmin() bool { return a.Role == entity.RoleAdmin }

// AuthorizeRootOwner solo el distribuidor que otorgó la raíz la edita, cancela o elimina.
func AuthorizeRootOwner(a Actor, root *entity.RootAllocation) error {
	if root == nil {
		return domain.ErrNotFound
	}
	if a.isAdmin() || (a.ID != "" && a.ID == root.DistributorID) {
		return nil
	}
	return domain.ErrForbidden
}

// AuthorizeRootRecipient solo la asociación receptora sub-asigna o retira sub-asignaciones.
func AuthorizeRootRecipient(a Actor, root *entity.RootAllocation) error {
	if root == nil {
		return domain.ErrNotFound
	}
	if a.isAdmin() || (a.ID != "" && a.ID == root.RecipientID) {
		return nil
	}
	return domain.ErrForbidden
}

// AuthorizeChildOutcome el agricultor receptor registra el resultado; la asociación
// receptora de la raíz puede hacerlo en su nombre.
func AuthorizeChildOutcome(a Actor, root *entity.RootAllocation, child *entity.ChildAllocation) error {
	if child == nil || root == nil {
		return domain.ErrNotFound
	}
	switch {
	case a.isAdmin():
		return nil
	case a.ID == "":
		return domain.ErrForbidden
	case a.Role == entity.RoleFarmer && a.ID == child.RecipientID:
		return nil
	case a.Role == entity.RoleAssociation && a.ID == root.RecipientID:
		return nil
	}
	return domain.ErrForbidden
}
