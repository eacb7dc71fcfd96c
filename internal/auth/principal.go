package auth

import "github.com/gin-gonic/gin"

// ContextKey is where JWTAuth stores the resolved principal.
const ContextKey = "principal"

// Principal is the acting identity resolved once at the auth boundary.
// TenantID is total: owners own their tenant, employees act inside the
// employing owner's tenant. Every tenant-scoped query filters by it.
type Principal interface {
	TenantID() int64
	PrincipalID() int64
}

type Owner struct {
	ID    int64
	Email string
	Name  string
}

func (o Owner) TenantID() int64    { return o.ID }
func (o Owner) PrincipalID() int64 { return o.ID }

type Employee struct {
	ID      int64
	OwnerID int64
	Email   string
	Name    string
	Role    string
}

func (e Employee) TenantID() int64    { return e.OwnerID }
func (e Employee) PrincipalID() int64 { return e.ID }

func IsOwner(p Principal) bool {
	_, ok := p.(Owner)
	return ok
}

// FromContext returns the principal set by the JWTAuth middleware.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(Principal)
	return p, ok
}
