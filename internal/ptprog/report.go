// Public domain.

package ptprog

import (
	"fmt"
	"io"

	"github.com/soniakeys/unit"

	"github.com/LuluAgazie/PINT/derive"
	"github.com/LuluAgazie/PINT/fit"
	"github.com/LuluAgazie/PINT/param"
	"github.com/LuluAgazie/PINT/timescale"
	"github.com/LuluAgazie/PINT/toa"
)

// Sky position of PSR 1748-2021E, frozen in the demonstration model.
var (
	raj  = unit.NewRA(17, 48, 52.75).Rad()
	decj = unit.NewAngle('-', 20, 21, 29).Rad()
)

func printSummary(w io.Writer, res *fit.Result, set *toa.Set) {
	fmt.Fprintf(w, "Fitted model using weighted least squares with %d free parameters to %d TOAs\n",
		len(res.Names), set.Len())
	fmt.Fprintf(w, "Status: %s in %d iterations\n", res.Status, res.Iterations)
	fmt.Fprintf(w, "Chisq = %.3f for %d d.o.f. for reduced Chisq of %.3f\n",
		res.Chi2, res.DOF, res.Chi2/float64(res.DOF))
	first, last := set.Span()
	y1, m1, d1 := timescale.Calendar(first)
	y2, m2, d2 := timescale.Calendar(last)
	fmt.Fprintf(w, "Data span MJD %.3f to %.3f (%d-%02d-%02.0f to %d-%02d-%02.0f)\n\n",
		first, last, y1, m1, d1, y2, m2, d2)

	fmt.Fprintf(w, "%-8s %24s %14s %s\n", "PAR", "Postfit", "Unc", "Units")
	for _, p := range res.Params {
		switch {
		case p.Name == "RAJ" || p.Name == "DECJ":
			// report sky angles in degrees
			fmt.Fprintf(w, "%-8s %24.6f %14s %s\n",
				p.Name, unit.Angle(p.Value).Deg(), "", "deg")
		case p.Frozen:
			fmt.Fprintf(w, "%-8s %24.12g %14s %s\n", p.Name, p.Value, "", p.Unit)
		default:
			fmt.Fprintf(w, "%-8s %24.15g %14.3g %s\n",
				p.Name, p.Value, p.Uncertainty, p.Unit)
		}
	}
	for _, c := range res.Unconstrained {
		fmt.Fprintf(w, "unconstrained: %s\n", c)
	}
	fmt.Fprintf(w, "\nAIC = %.3f   BIC = %.3f\n", res.AIC, res.BIC)
}

func printDerived(w io.Writer, reg *param.Registry, res *fit.Result) {
	fmt.Fprintln(w, "\nDerived parameters:")
	funcs := []func(*param.Registry) (derive.Func, error){
		derive.Period,
		derive.Pdot,
		derive.CharacteristicAge,
		derive.SurfaceField,
		derive.SpindownLuminosity,
	}
	units := []string{"s", "", "yr", "G", "erg/s"}
	for i, mk := range funcs {
		f, err := mk(reg)
		if err != nil {
			fmt.Fprintf(w, "  (skipped: %v)\n", err)
			continue
		}
		v, err := derive.Propagate(f, res.Values, res.Cov)
		if err != nil {
			fmt.Fprintf(w, "  %s: %v\n", f.Name, err)
			continue
		}
		fmt.Fprintf(w, "  %-6s = %.6g +/- %.3g %s\n", v.Name, v.Value, v.Uncertainty, units[i])
	}
}
