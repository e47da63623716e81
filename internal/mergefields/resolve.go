package mergefields

import (
	"fmt"
	"time"

	"github.com/draftsign/draftsign-api/internal/models"
)

const dateFormat = "02/01/2006"

// Context supplies the typed records merge fields resolve against
type Context struct {
	Client   *models.Client
	Tenant   *models.Tenant
	Document *models.Document
	Now      time.Time
}

// Resolve maps each key to its concrete string value. Unknown or unavailable
// keys resolve to the empty string and are returned as warnings so a
// partial-field document still renders; the operator fixes wording later.
func Resolve(keys []Key, ctx Context) (map[Key]string, []Key) {
	values := make(map[Key]string, len(keys))
	var warnings []Key

	for _, k := range keys {
		v, ok := ctx.lookup(k)
		if !ok {
			warnings = append(warnings, k)
		}
		values[k] = v
	}
	return values, warnings
}

func (c Context) lookup(k Key) (string, bool) {
	switch k {
	case KeyClientFullName:
		if c.Client != nil {
			return c.Client.FullName, true
		}
	case KeyClientEmail:
		if c.Client != nil {
			return c.Client.Email, true
		}
	case KeyClientPhone:
		if c.Client != nil {
			return c.Client.Phone, true
		}
	case KeyClientCompany:
		if c.Client != nil {
			return c.Client.Company, true
		}
	case KeyCompanyName:
		if c.Tenant != nil {
			return c.Tenant.CompanyName, true
		}
	case KeyCompanyEmail:
		if c.Tenant != nil {
			return c.Tenant.Email, true
		}
	case KeyCompanyAddress:
		if c.Tenant != nil {
			return c.Tenant.Address, true
		}
	case KeyDocumentTitle:
		if c.Document != nil {
			return c.Document.Title, true
		}
	case KeyDocumentCreated:
		if c.Document != nil {
			return c.Document.CreatedAt.Format(dateFormat), true
		}
	case KeyDocumentDueDate:
		if c.Document != nil && c.Document.DueDate != nil {
			return c.Document.DueDate.Format(dateFormat), true
		}
	case KeyDocumentTotal:
		if c.Document != nil {
			return fmt.Sprintf("%.2f", c.Document.Total), true
		}
	case KeyTodayDate:
		return c.Now.Format(dateFormat), true
	}
	return "", false
}
