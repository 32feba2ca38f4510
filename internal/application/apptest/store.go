package apptest

import (
	"context"
	"sync"

	"github.com/jhoicas/form-reporting-api/internal/application/ports"
)

// Store agrupa los fakes y hace de ports.TxRunner.
// Run no hace rollback: los tests verifican el estado que dejó fn.
type Store struct {
	Users       *Users
	Roles       *Roles
	Regions     *Regions
	Tenants     *Tenants
	Departments *Departments
	Groups      *Groups
	Categories  *Categories
	Templates   *Templates
	Submissions *Submissions
	Metrics     *MetricDefinitions
	Mappings    *Mappings
	Values      *TenantMetrics
	Reports     *Reports
	Analytics   *Analytics
	Snapshots   *Snapshots
	Assignments *Assignments
	Rules       *Rules
	Options     *OptionTemplates
}

// NewStore fakes vacíos enlazados entre sí.
func NewStore() *Store {
	tenants := NewTenants()
	templates := NewTemplates()
	metrics := NewMetricDefinitions()
	submissions := NewSubmissions(templates)
	return &Store{
		Users:       NewUsers(),
		Roles:       NewRoles(),
		Regions:     NewRegions(tenants),
		Tenants:     tenants,
		Departments: NewDepartments(),
		Groups:      NewGroups(tenants),
		Categories:  NewCategories(templates),
		Templates:   templates,
		Submissions: submissions,
		Metrics:     metrics,
		Mappings:    NewMappings(templates, metrics),
		Values:      NewTenantMetrics(metrics),
		Reports:     NewReports(),
		Analytics:   NewAnalytics(submissions, tenants),
		Snapshots:   NewSnapshots(),
		Assignments: NewAssignments(templates),
		Rules:       NewRules(),
		Options:     NewOptionTemplates(),
	}
}

// Repos los fakes como ports.Repos.
func (s *Store) Repos() ports.Repos {
	return ports.Repos{
		Users:         s.Users,
		Roles:         s.Roles,
		Regions:       s.Regions,
		Tenants:       s.Tenants,
		Departments:   s.Departments,
		Groups:        s.Groups,
		Templates:     s.Templates,
		Submissions:   s.Submissions,
		Mappings:      s.Mappings,
		TenantMetrics: s.Values,
		Reports:       s.Reports,
		Options:       s.Options,
	}
}

func (s *Store) Run(_ context.Context, fn func(r ports.Repos) error) error {
	return fn(s.Repos())
}

var _ ports.TxRunner = (*Store)(nil)

// Invalidator registra los usuarios cuyos claims se descartaron.
type Invalidator struct {
	mu  sync.Mutex
	IDs []string
}

func (i *Invalidator) Invalidate(_ context.Context, userIDs ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.IDs = append(i.IDs, userIDs...)
}
