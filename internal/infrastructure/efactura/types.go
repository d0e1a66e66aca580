package efactura

import (
	"bytes"
	"encoding/json"

	"github.com/erp/invoicing/internal/domain/billing"
)

// flexString accepts a JSON string or number
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type uploadResponse struct {
	IndexIncarcare  flexString `json:"index_incarcare"`
	ExecutionStatus flexString `json:"ExecutionStatus"`
	Errors          []struct {
		Message string `json:"errorMessage"`
	} `json:"Errors"`
}

type statusResponse struct {
	Stare        string     `json:"stare"`
	IDDescarcare flexString `json:"id_descarcare"`
}

// mapStare converts the service's processing state to EInvoiceStatus
func mapStare(stare string) billing.EInvoiceStatus {
	switch stare {
	case "ok":
		return billing.EInvoiceStatusAccepted
	case "nok":
		return billing.EInvoiceStatusRejected
	case "in prelucrare":
		return billing.EInvoiceStatusInProgress
	default:
		return billing.EInvoiceStatusUnknown
	}
}

type lookupRequest struct {
	CUI  int64  `json:"cui"`
	Data string `json:"data"`
}

type lookupResponse struct {
	Found []lookupRecord `json:"found"`
}

type lookupRecord struct {
	DateGenerale struct {
		CUI      int64  `json:"cui"`
		Denumire string `json:"denumire"`
		Adresa   string `json:"adresa"`
		NrRegCom string `json:"nrRegCom"`
		Telefon  string `json:"telefon"`
	} `json:"date_generale"`
	AdresaSediuSocial struct {
		Localitate string `json:"sdenumire_Localitate"`
		Judet      string `json:"sdenumire_Judet"`
	} `json:"adresa_sediu_social"`
	InregistrareScopTVA struct {
		ScpTVA bool `json:"scpTVA"`
	} `json:"inregistrare_scop_Tva"`
	StareInactiv struct {
		StatusInactivi bool `json:"statusInactivi"`
	} `json:"stare_inactiv"`
}
