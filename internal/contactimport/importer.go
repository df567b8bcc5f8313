// Package contactimport loads contacts from CSV and XLSX exports.
package contactimport

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/enrich"
	"github.com/sells-group/visitor-intel/internal/model"
)

// Store is the persistence the importer writes through.
type Store interface {
	GetOrCreateCompany(ctx context.Context, company model.Company) (*model.Company, bool, error)
	CreateContact(ctx context.Context, contact model.Contact) (*model.Contact, bool, error)
}

// RowError records why a data row was not imported. Row is 1-based and
// counts the header.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report summarizes an import.
type Report struct {
	Rows             int        `json:"rows"`
	Created          int        `json:"created"`
	Duplicates       int        `json:"duplicates"`
	CompaniesCreated int        `json:"companiesCreated"`
	Skipped          []RowError `json:"skipped,omitempty"`
}

type column int

const (
	colFirstName column = iota
	colLastName
	colFullName
	colEmail
	colTitle
	colPhone
	colLinkedIn
	colCompany
	colDomain
)

var headerAliases = map[string]column{
	"first name": colFirstName, "firstname": colFirstName, "first": colFirstName, "given name": colFirstName,
	"last name": colLastName, "lastname": colLastName, "last": colLastName, "surname": colLastName,
	"name": colFullName, "full name": colFullName,
	"email": colEmail, "email address": colEmail, "e-mail": colEmail,
	"title": colTitle, "job title": colTitle, "position": colTitle,
	"phone": colPhone, "phone number": colPhone, "mobile": colPhone,
	"linkedin": colLinkedIn, "linkedin url": colLinkedIn,
	"company": colCompany, "company name": colCompany, "organization": colCompany,
	"domain": colDomain, "website": colDomain, "company domain": colDomain,
}

// Importer creates contacts, and the companies they belong to, for one
// client.
type Importer struct {
	store  Store
	region string
}

// NewImporter creates an Importer. region is the default phone region
// (ISO 3166 alpha-2); empty means US.
func NewImporter(st Store, region string) *Importer {
	return &Importer{store: st, region: region}
}

// ImportFile imports path (.csv or .xlsx) for clientID. The first row must be
// a header naming at least an email column and a company or domain column.
func (im *Importer) ImportFile(ctx context.Context, clientID, path string) (*Report, error) {
	rows, errs := StreamFile(ctx, path)
	report, err := im.Import(ctx, clientID, rows)
	// Read failures take precedence.
	for rerr := range errs {
		if rerr != nil {
			return report, rerr
		}
	}
	return report, err
}

// Import consumes rows until the channel closes. Rows that cannot be
// imported are reported, not returned as errors.
func (im *Importer) Import(ctx context.Context, clientID string, rows <-chan []string) (*Report, error) {
	if clientID == "" {
		return nil, eris.New("import: client id is required")
	}
	report := &Report{}
	log := zap.L().With(zap.String("client_id", clientID))

	var cols map[column]int
	companies := make(map[string]*model.Company)
	line := 0
	for row := range rows {
		line++
		if cols == nil {
			var err error
			if cols, err = mapHeader(row); err != nil {
				drain(rows)
				return nil, err
			}
			continue
		}
		if blank(row) {
			continue
		}
		report.Rows++

		rec := readRecord(row, cols)
		if reason := rec.invalid(); reason != "" {
			report.Skipped = append(report.Skipped, RowError{Row: line, Reason: reason})
			continue
		}

		key := rec.domain + "|" + strings.ToLower(rec.company)
		company, ok := companies[key]
		if !ok {
			name := rec.company
			if name == "" {
				name = rec.domain
			}
			var created bool
			var err error
			company, created, err = im.store.GetOrCreateCompany(ctx, model.Company{
				ClientID: clientID,
				Name:     name,
				Domain:   rec.domain,
				Industry: model.IndustryUnknown,
				Size:     model.SizeUnknown,
			})
			if err != nil {
				drain(rows)
				return report, eris.Wrapf(err, "import: company on row %d", line)
			}
			if created {
				report.CompaniesCreated++
			}
			companies[key] = company
		}

		_, created, err := im.store.CreateContact(ctx, model.Contact{
			ClientID:    clientID,
			CompanyID:   company.ID,
			FirstName:   rec.first,
			LastName:    rec.last,
			Email:       rec.email,
			Title:       rec.title,
			Phone:       enrich.NormalizePhone(rec.phone, im.region),
			LinkedInURL: rec.linkedIn,
			Source:      model.ContactSourceImport,
		})
		if err != nil {
			drain(rows)
			return report, eris.Wrapf(err, "import: contact on row %d", line)
		}
		if created {
			report.Created++
		} else {
			report.Duplicates++
		}
	}
	if cols == nil {
		return nil, eris.New("import: file is empty")
	}

	log.Info("contacts imported",
		zap.Int("rows", report.Rows),
		zap.Int("created", report.Created),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

type record struct {
	first, last, email, title, phone, linkedIn, company, domain string
}

func (r record) invalid() string {
	switch {
	case r.email == "" || !strings.Contains(r.email, "@"):
		return "missing or invalid email"
	case r.first == "" || r.last == "":
		return "missing first or last name"
	case r.company == "" && r.domain == "":
		return "missing company and domain"
	}
	return ""
}

func readRecord(row []string, cols map[column]int) record {
	get := func(c column) string {
		i, ok := cols[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	rec := record{
		first:    get(colFirstName),
		last:     get(colLastName),
		email:    strings.ToLower(get(colEmail)),
		title:    get(colTitle),
		phone:    get(colPhone),
		linkedIn: get(colLinkedIn),
		company:  get(colCompany),
		domain:   normalizeDomain(get(colDomain)),
	}
	if rec.first == "" && rec.last == "" {
		if full := strings.Fields(get(colFullName)); len(full) >= 2 {
			rec.first = full[0]
			rec.last = strings.Join(full[1:], " ")
		}
	}
	return rec
}

func mapHeader(header []string) (map[column]int, error) {
	cols := make(map[column]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(h, "_", " ")))
		if c, ok := headerAliases[key]; ok {
			if _, dup := cols[c]; !dup {
				cols[c] = i
			}
		}
	}
	if _, ok := cols[colEmail]; !ok {
		return nil, eris.New("import: header has no email column")
	}
	_, hasCompany := cols[colCompany]
	_, hasDomain := cols[colDomain]
	if !hasCompany && !hasDomain {
		return nil, eris.New("import: header needs a company or domain column")
	}
	return cols, nil
}

func normalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s, _, _ = strings.Cut(s, "/")
	return strings.TrimSuffix(s, ".")
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func drain(rows <-chan []string) {
	for range rows {
	}
}
