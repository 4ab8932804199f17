// Package diag describes a failed surface temperature search: every term of
// the parameter bundle grouped the way the energy balance uses them, the
// soil node table and the solver trace.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/chrissnell/surfenergy/internal/energy"
	"github.com/chrissnell/surfenergy/internal/types"
)

// Entry is one named value of a report group
type Entry struct {
	Name  string
	Value string
}

// Group is a titled list of entries
type Group struct {
	Title   string
	Entries []Entry
}

// NodeRow is one line of the soil node table
type NodeRow struct {
	Index int
	Zsum  float64
	Dz    float64
	T     float64
	Tnew  float64
	Kappa float64
	Cs    float64
	Moist float64
	Ice   float64
}

// Report is the description of a failed solve
type Report struct {
	ID     string
	Cause  string
	Groups []Group
	Nodes  []NodeRow
}

type groupBuilder struct {
	g Group
}

func (gb *groupBuilder) f(name string, v float64) {
	gb.g.Entries = append(gb.g.Entries, Entry{Name: name, Value: fmt.Sprintf("%f", v)})
}

func (gb *groupBuilder) i(name string, v int) {
	gb.g.Entries = append(gb.g.Entries, Entry{Name: name, Value: fmt.Sprintf("%d", v)})
}

func (gb *groupBuilder) b(name string, v bool) {
	gb.g.Entries = append(gb.g.Entries, Entry{Name: name, Value: fmt.Sprintf("%t", v)})
}

func (gb *groupBuilder) s(name string, v []float64) {
	parts := make([]string, len(v))
	for k, x := range v {
		parts[k] = fmt.Sprintf("%f", x)
	}
	gb.g.Entries = append(gb.g.Entries, Entry{Name: name, Value: "[" + strings.Join(parts, ", ") + "]"})
}

// DescribeFailure builds the report of a failed search over bundle b. cause
// is the solver error, if known.
func DescribeFailure(b *energy.Bundle, cause error) *Report {
	r := &Report{ID: uuid.New().String()}
	if cause != nil {
		r.Cause = cause.Error()
	}

	g := &groupBuilder{g: Group{Title: "General Model Terms"}}
	g.i("iveg", b.General.Tile.Index)
	g.i("Nveg", b.General.Tile.Count)
	g.i("month", b.General.Month)
	g.b("VEG", b.General.Veg)
	g.i("veg_class", b.General.VegClass)
	g.f("LAI", b.General.LAI)
	g.f("delta_t", b.General.Dt)
	g.b("INCLUDE_SNOW", b.General.IncludeSnow)
	r.Groups = append(r.Groups, g.g)

	l := b.Layer
	g = &groupBuilder{g: Group{Title: "Soil Layer Terms"}}
	g.f("Cs1", l.Cs1)
	g.f("Cs2", l.Cs2)
	g.f("D1", l.D1)
	g.f("D2", l.D2)
	g.f("T1_old", l.T1Old)
	g.f("T2", l.T2)
	g.f("Ts_old", l.TsOld)
	g.f("b_infilt", l.BInfilt)
	g.f("bubble", l.Bubble)
	g.f("dp", l.Dp)
	g.f("expt", l.Expt)
	g.f("ice0", l.Ice0)
	g.f("kappa1", l.Kappa1)
	g.f("kappa2", l.Kappa2)
	g.f("max_infil", l.MaxInfil)
	g.f("max_moist", l.MaxMoist)
	g.f("moist", l.Moist)
	g.s("Wcr", l.Wcr)
	g.s("Wpwp", l.Wpwp)
	g.s("depth", l.Depth)
	g.s("resid_moist", l.ResidMoist)
	g.s("root", l.Root)
	r.Groups = append(r.Groups, g.g)

	m := b.Met
	g = &groupBuilder{g: Group{Title: "Meteorological Forcing Terms"}}
	g.b("UnderStory", m.UnderStory)
	g.b("overstory", m.Overstory)
	g.f("NetShortBare", m.NetShortBare)
	g.f("NetShortGrnd", m.NetShortGround)
	g.f("NetShortSnow", m.NetShortSnow)
	g.f("Tair", m.Tair)
	g.f("atmos_density", m.Density)
	g.f("atmos_pressure", m.Pressure)
	g.f("elevation", m.Elevation)
	g.f("emissivity", m.Emissivity)
	g.f("LongBareIn", m.LongBareIn)
	g.f("LongSnowIn", m.LongSnowIn)
	g.f("mu", m.Mu)
	g.f("surf_atten", m.SurfAtten)
	g.f("vp", m.VP)
	g.f("vpd", m.VPD)
	g.s("Wdew", m.Wdew[:])
	g.s("rainfall", m.Rainfall[:])
	g.f("displacement", m.Displacement)
	g.f("ra", m.AeroResist)
	g.f("ref_height", m.RefHeight)
	g.f("roughness", m.Roughness)
	g.f("wind", m.Wind)
	g.f("Le", m.Le)
	g.f("Advection", m.Advection)
	r.Groups = append(r.Groups, g.g)

	sn := b.Snow
	g = &groupBuilder{g: Group{Title: "Snow Pack Terms"}}
	g.f("OldTSurf", sn.OldTSurf)
	g.f("TPack", sn.PackTemp)
	g.f("Tsnow_surf", sn.SurfTemp)
	g.f("kappa_snow", sn.Kappa)
	g.f("melt_energy", sn.MeltEnergy)
	g.f("snow_coverage", sn.Coverage)
	g.f("snow_density", sn.Density)
	g.f("snow_swq", sn.SWQ)
	g.f("snow_water", sn.SurfWater)
	g.f("blowing_flux", sn.BlowingFlux)
	r.Groups = append(r.Groups, g.g)

	f := b.Flags
	g = &groupBuilder{g: Group{Title: "Control Flags"}}
	g.b("FULL_ENERGY", f.FullEnergy)
	g.b("GRND_FLUX", f.GroundFlux)
	g.b("QUICK_FLUX", f.QuickFlux)
	g.b("QUICK_SOLVE", f.QuickSolve)
	g.b("NOFLUX", f.NoFlux)
	g.b("DIST_PRCP", f.DistPrcp)
	g.b("SPATIAL_FROST", f.SpatialFrost)
	g.b("QUICK_FROZEN_SOIL", f.QuickFrozenSoil)
	g.b("SPATIAL_SNOW", f.SpatialSnow)
	g.i("Nnodes", b.Nodes.Active)
	r.Groups = append(r.Groups, g.g)

	tr := b.Trace
	g = &groupBuilder{g: Group{Title: "Solver Trace"}}
	g.f("T_lower", tr.Lower)
	g.f("T_upper", tr.Upper)
	g.f("last_T", tr.T)
	g.f("last_error", tr.Residual)
	g.i("iterations", tr.Iterations)
	g.i("evaluations", tr.Evaluations)
	r.Groups = append(r.Groups, g.g)

	o := b.Out
	g = &groupBuilder{g: Group{Title: "Returned Terms"}}
	g.f("T1", o.T1)
	g.f("grnd_flux", o.GroundFlux)
	g.f("deltaH", o.DeltaH)
	g.f("fusion", o.Fusion)
	g.f("sensible", o.Sensible)
	g.f("latent", o.Latent)
	g.f("latent_sub", o.LatentSub)
	g.f("snow_flux", o.SnowFlux)
	g.f("NetLongBare", o.NetLongBare)
	g.f("NetLongSnow", o.NetLongSnow)
	g.f("deltaCC", o.DeltaCC)
	g.f("refreeze_energy", o.RefreezeEnergy)
	g.f("vapor_flux", o.VaporFlux)
	g.f("surface_flux", o.SurfaceFlux)
	g.f("blowing_flux", o.BlowingFlux)
	g.f("error", o.Residual)
	if o.SoilErr != "" {
		g.g.Entries = append(g.g.Entries, Entry{Name: "soil_error", Value: o.SoilErr})
	}
	r.Groups = append(r.Groups, g.g)

	r.Groups = append(r.Groups, layerGroup("Layer State (wet)", b.State.LayerWet), vegGroup("Vegetation State (wet)", b.State.VegWet))
	if f.DistPrcp {
		r.Groups = append(r.Groups, layerGroup("Layer State (dry)", b.State.LayerDry), vegGroup("Vegetation State (dry)", b.State.VegDry))
	}

	if p := b.Nodes.Profile; p != nil {
		for k := range p.T {
			row := NodeRow{Index: k, T: p.T[k], Tnew: p.Tnew[k], Kappa: p.Kappa[k], Cs: p.Cs[k], Moist: p.Moist[k], Ice: p.Ice[k]}
			if k < len(b.Nodes.Zsum) {
				row.Zsum = b.Nodes.Zsum[k]
			}
			if k < len(b.Nodes.Dz) {
				row.Dz = b.Nodes.Dz[k]
			}
			r.Nodes = append(r.Nodes, row)
		}
	}

	return r
}

func layerGroup(title string, layers []types.LayerState) Group {
	g := &groupBuilder{g: Group{Title: title}}
	for k, l := range layers {
		g.f(fmt.Sprintf("layer[%d].moist", k), l.Moist)
		g.f(fmt.Sprintf("layer[%d].ice", k), l.Ice)
		g.f(fmt.Sprintf("layer[%d].T", k), l.T)
	}
	return g.g
}

func vegGroup(title string, v types.VegetationState) Group {
	g := &groupBuilder{g: Group{Title: title}}
	g.f("Wdew", v.Wdew)
	g.f("throughfall", v.Throughfall)
	return g.g
}

// WriteTo writes the report as text
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ERROR: surface energy balance did not converge [%s]\n", r.ID)
	if r.Cause != "" {
		fmt.Fprintf(&sb, "cause: %s\n", r.Cause)
	}
	for _, g := range r.Groups {
		fmt.Fprintf(&sb, "\n%s\n", g.Title)
		for _, e := range g.Entries {
			fmt.Fprintf(&sb, "  %s = %s\n", e.Name, e.Value)
		}
	}
	if len(r.Nodes) > 0 {
		fmt.Fprintf(&sb, "\nSoil Nodes\n")
		fmt.Fprintf(&sb, "  %4s %8s %8s %10s %10s %10s %12s %8s %8s\n", "node", "zsum", "dz", "T", "Tnew", "kappa", "Cs", "moist", "ice")
		for _, n := range r.Nodes {
			fmt.Fprintf(&sb, "  %4d %8.3f %8.3f %10.4f %10.4f %10.4f %12.1f %8.4f %8.4f\n",
				n.Index, n.Zsum, n.Dz, n.T, n.Tnew, n.Kappa, n.Cs, n.Moist, n.Ice)
		}
	}
	sb.WriteString("\nFinished writing surface energy balance variables\n")
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns the text form of the report
func (r *Report) String() string {
	var sb strings.Builder
	r.WriteTo(&sb)
	return sb.String()
}

// Lookup returns the value of a named entry in a group
func (r *Report) Lookup(group, name string) (string, bool) {
	for _, g := range r.Groups {
		if g.Title != group {
			continue
		}
		for _, e := range g.Entries {
			if e.Name == name {
				return e.Value, true
			}
		}
	}
	return "", false
}
