/*
PINT estimates physical parameters of a pulsar's rotational and orbital
timing model from observed pulse arrival times.

Contents

  Overview
  Packages
  Fitting outline

Overview

A pulsar timing model is nonlinear in its parameters.  The packages here
linearize the model around the current parameter values and either refine
the parameters by iterated weighted least squares or sample a posterior
distribution over them with Markov-chain Monte Carlo.  Evaluation of raw
residuals and their partial derivatives is delegated to a caller-supplied
evaluator; parfile text handling is likewise left to callers, though
package toa reads observations in the TEMPO2 tim format.

Packages

Package param holds named model parameters and the fixed ordered registry
that all matrix and vector indices resolve against.  Package toa holds a
validated set of pulse times of arrival.  Package timescale supplies
TCB/TDB rate factors and calendar conversions.  Package noise converts
noise parameters between phase and time representations and scales
per-observation uncertainties.  Package design assembles the matrix of
residual partial derivatives.  Package fit drives the least-squares
refinement and computes AIC/BIC.  Package mcmc samples the posterior.
Package derive computes secondary quantities with propagated uncertainty.

The command ptfit runs a demonstration fit on synthetic spin-down data.

Fitting outline

Each least-squares iteration rebuilds the design matrix at the current
parameter values, whitens it by the scaled observation uncertainties,
solves the normal equations by singular value decomposition with small
singular values removed, and applies the resulting parameter step, halving
it while chi-squared worsens.  Degenerate parameter combinations are
reported by name rather than aborting the fit.  The converged state yields
the parameter covariance matrix consumed by package derive.
*/
package pint
