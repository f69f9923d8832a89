package projection

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// BadgeRenderer writes a one-line header badge.
func BadgeRenderer(w io.Writer) Renderer {
	return RendererFunc(func(v View) error {
		_, err := fmt.Fprintf(w, "Cart (%d) %s\n", v.Badge.Count, v.Badge.Total)
		return err
	})
}

// DropdownRenderer writes the compact mini-cart.
func DropdownRenderer(w io.Writer) Renderer {
	return RendererFunc(func(v View) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, l := range v.Dropdown.Lines {
			fmt.Fprintf(tw, "%s\tx%d\t%s\n", l.Label, l.Quantity, l.LineTotal)
		}
		fmt.Fprintf(tw, "Total\t%d\t%s\n", v.Dropdown.Count, v.Dropdown.Total)
		if err := tw.Flush(); err != nil {
			return err
		}
		if v.Dropdown.DiscountNote != "" {
			_, err := fmt.Fprintln(w, v.Dropdown.DiscountNote)
			return err
		}
		return nil
	})
}

// TableRenderer writes the full order table with its pricing summary.
func TableRenderer(w io.Writer) Renderer {
	return RendererFunc(func(v View) error {
		if v.Table.Empty != "" {
			_, err := fmt.Fprintf(w, "%s\nTotal: %s\n", v.Table.Empty, v.Table.Summary.Total)
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tPRODUCT\tCOLOR\tPERSONALISATION\tQTY\tPRICE\tLINE TOTAL")
		for i, r := range v.Table.Rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
				i+1, r.ProductName, r.Color, r.PersonalizationSummary, r.Quantity, r.UnitPrice, r.LineTotal)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		s := v.Table.Summary
		fmt.Fprintf(w, "Subtotal: %s\n", s.Subtotal)
		if s.DiscountApplied {
			fmt.Fprintf(w, "Discount: -%s\n", s.DiscountAmount)
		}
		fmt.Fprintf(w, "Total: %s\n", s.Total)
		if s.DiscountNote != "" {
			fmt.Fprintln(w, s.DiscountNote)
		}
		return nil
	})
}
