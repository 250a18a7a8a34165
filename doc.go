// Package creditgroup types, groups and classifies the columns of the
// Kaggle credit-score dataset.
//
// Given a table of raw CSV columns, creditgroup guesses each column's
// semantic type, sorts the columns into identifier, date, continuous,
// binary, categorical and other groups, lets you move columns between
// groups by hand, and trains a gradient-boosted classifier on the feature
// groups.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/creditgroup/datasets"
//	    "github.com/YuminosukeSato/creditgroup/pipeline"
//	    "github.com/YuminosukeSato/creditgroup/preprocessing"
//	)
//
//	func main() {
//	    cfg, err := datasets.LoadConfig()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    tbl, err := datasets.LoadCreditData(cfg, "")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // treat the account count as a category
//	    move := preprocessing.Override{SourceGroup: "continuous", DestinationGroup: "categorical", ColumnName: "Num_Bank_Accounts"}
//	    res, err := pipeline.Run(context.Background(), cfg, tbl, move)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("accuracy:", res.Accuracy)
//	}
//
// # Packages
//
//   - core/table: Typed, immutable columnar tables (and Arrow conversion)
//   - preprocessing: Schema detection, column grouping, overrides, imputation, label encoding
//   - datasets: Configuration, kagglehub cache lookup and CSV loading
//   - sklearn/lightgbm: Histogram gradient boosting classifier
//   - sklearn/linear_model: Logistic regression baseline
//   - sklearn/model_selection: Train/test split
//   - metrics: Classification metrics
//   - pipeline: End-to-end run and group size chart
//   - core/model: Core interfaces and base types
//   - core/parallel: Parallel processing utilities
//   - pkg/errors, pkg/log: Structured errors, warnings and logging
//
// # Configuration
//
// datasets.LoadConfig reads CREDIT_* environment variables (and an optional
// .env file). KAGGLEHUB_CACHE points at the kagglehub cache; set
// CREDIT_DATA_DIR to read CSV files from a plain directory instead.
package creditgroup
