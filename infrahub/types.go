package infrahub

import "fmt"

// Kinds of remote objects the portal creates or queries.
const (
	KindLocationMetro        = "LocationMetro"
	KindLocationBuilding     = "LocationBuilding"
	KindDesignTopology       = "DesignTopology"
	KindOrganizationProvider = "OrganizationProvider"
	KindDeviceType           = "DcimDeviceType"
	KindDevice               = "DcimDevice"
	KindInterface            = "DcimInterface"
	KindIPSubnet             = "IpamSubnet"
)

// Object is a node in the backend's graph: a location, subnet, device,
// topology record and so on. The portal only ever needs its identity; the
// id is what gets threaded into dependent objects as a reference.
type Object struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	DisplayLabel string `json:"display_label"`
}

// NodeID implements workflow.NodeRef.
func (o *Object) NodeID() string { return o.ID }

// NodeName implements workflow.NodeRef.
func (o *Object) NodeName() string { return o.Name }

// NodeKind implements workflow.NodeRef.
func (o *Object) NodeKind() string { return o.Kind }

// Branch is an isolated workspace in the backend where a change request's
// objects are created before being merged into the main configuration state.
type Branch struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SyncWithGit bool   `json:"sync_with_git"`
}

// NodeID implements workflow.NodeRef.
func (b *Branch) NodeID() string { return b.ID }

// NodeName implements workflow.NodeRef.
func (b *Branch) NodeName() string { return b.Name }

// NodeKind implements workflow.NodeRef.
func (b *Branch) NodeKind() string { return "Branch" }

// SchemaAttribute is one attribute of a kind's schema, with its enumerated
// choices when the attribute is a dropdown.
type SchemaAttribute struct {
	Name    string   `json:"name"`
	Choices []Choice `json:"choices"`
}

// Choice is one allowed value of a dropdown attribute.
type Choice struct {
	Name string `json:"name"`
}

// AttributeNotFoundError is returned when a schema lookup names an attribute
// the kind does not have.
type AttributeNotFoundError struct {
	Kind      string
	Attribute string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("can't find attribute %q for kind %q", e.Attribute, e.Kind)
}
