package models

// Cluster is a group of thematically related work items.
type Cluster struct {
	ID             string     `json:"id"`
	Theme          string     `json:"theme"`
	Items          []WorkItem `json:"items"`
	Keywords       []string   `json:"keywords"`
	CoherenceScore float64    `json:"coherenceScore"`
}

// Size returns the number of items in the cluster.
func (c Cluster) Size() int {
	return len(c.Items)
}

// CrossClusterConnection links two clusters that share keywords.
// From always refers to the cluster that comes first in the summary.
type CrossClusterConnection struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Relationship string `json:"relationship"`
}

// SmartSummary is the clustered view of a set of work items.
type SmartSummary struct {
	Narrative               string                   `json:"narrative"`
	Clusters                []Cluster                `json:"clusters"`
	CrossClusterConnections []CrossClusterConnection `json:"crossClusterConnections"`
}

// ClusterByID returns the cluster with the given id.
func (s *SmartSummary) ClusterByID(id string) (*Cluster, bool) {
	for i := range s.Clusters {
		if s.Clusters[i].ID == id {
			return &s.Clusters[i], true
		}
	}
	return nil, false
}
