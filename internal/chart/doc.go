// Package chart turns the summary tables of a pipeline run into plain chart
// data: bars with their colours, scatter points with a fitted line,
// correlation matrices and the overview counts shown on the dashboard.
//
// Every function is a pure function of its inputs. Themes are values, not
// shared style state, so the same summary rendered with two themes yields
// two independent artifacts.
//
//	params := chart.PlotParams{
//		Kind:    chart.KindBar,
//		Dataset: chart.DatasetBusiness,
//		XField:  chart.FieldBusinessName,
//		YField:  chart.FieldEmployees,
//		TopN:    10,
//		Theme:   chart.ThemeBlue,
//	}
//	artifact, err := chart.Render(summary, params)
package chart
